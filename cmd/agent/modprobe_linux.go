package main

import (
	"fmt"
	"os/exec"
	"time"
)

// LoadVSockModule loads the guest side transport of VM sockets.
func LoadVSockModule() error {
	if out, err := exec.Command("modprobe", "vmw_vsock_virtio_transport").CombinedOutput(); err != nil {
		return fmt.Errorf("could not load vsock module: modprobe failed with %s: %s", err, out)
	}

	// the device node shows up asynchronously
	time.Sleep(time.Second)

	return nil
}
