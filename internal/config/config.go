package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Prefix of the environment variables read by Load.
const Prefix = "BRAIN"

const (
	DefaultSerialPort = "/dev/virtio-ports/org.jpo-robotics.brain.0"
	DefaultVsockPort  = 8383
)

var ErrNoDeviceRoot = errors.New("device root is not configured (BRAIN_DEVICE_ROOT)")

// Config holds the agent configuration.
type Config struct {
	// DeviceRoot is the directory exposed to the host as the device filesystem.
	DeviceRoot string `envconfig:"DEVICE_ROOT"`

	SerialPort string `envconfig:"SERIAL_PORT" default:"/dev/virtio-ports/org.jpo-robotics.brain.0"`
	VsockPort  uint32 `envconfig:"VSOCK_PORT" default:"8383"`

	// TCPAddr enables an additional TCP listener, mostly for development.
	TCPAddr string `envconfig:"TCP_ADDR"`

	// Legacy forces the serial port even if VM sockets are available.
	Legacy bool `envconfig:"LEGACY" default:"false"`

	Verbose bool `envconfig:"VERBOSE" default:"false"`
}

// Load loads configuration from environment variables.
// The result is not validated: flags may still complete it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the device root is set and is a directory.
func (c *Config) Validate() error {
	if c.DeviceRoot == "" {
		return ErrNoDeviceRoot
	}

	fi, err := os.Stat(c.DeviceRoot)
	if err != nil {
		return fmt.Errorf("invalid device root: %w", err)
	}

	if !fi.IsDir() {
		return fmt.Errorf("invalid device root: %s is not a directory", c.DeviceRoot)
	}

	if c.VsockPort == 0 {
		return errors.New("invalid vsock port: 0")
	}

	return nil
}
