package devconn

import (
	"errors"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sys/unix"
)

// AcceptDelay throttles Accept. A virtio port without a process attached
// to the host-side chardev makes the accept loop spin otherwise.
var AcceptDelay = time.Second

// DeviceConn is a character device (a virtio port or a UART)
// used as a connection to the host.
type DeviceConn struct {
	devpath string
	f       *os.File
}

func DialDevice(devpath string) (*DeviceConn, error) {
	f, err := os.OpenFile(devpath, unix.O_RDWR|unix.O_NOCTTY|unix.O_ASYNC|unix.O_NDELAY, 0o666)
	if err != nil {
		return nil, err
	}

	if err := makeRaw(f); err != nil {
		f.Close()

		return nil, err
	}

	return &DeviceConn{f: f, devpath: devpath}, nil
}

// makeRaw disables echo and line editing on serial terminals,
// so that the request lines reach us unchanged. Devices that
// are not terminals are left as they are.
func makeRaw(f *os.File) error {
	fd := int(f.Fd())

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		if errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EINVAL) {
			return nil
		}

		return err
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func (c *DeviceConn) Read(b []byte) (n int, err error) {
	return c.f.Read(b)
}

func (c *DeviceConn) Write(b []byte) (n int, err error) {
	return c.f.Write(b)
}

// Close ends a session but keeps the device open for the next one.
// The device itself is closed together with the listener.
func (c *DeviceConn) Close() error {
	return nil
}

func (c *DeviceConn) LocalAddr() net.Addr {
	return &net.UnixAddr{Name: "serial:" + c.devpath, Net: "serial"}
}

func (c *DeviceConn) RemoteAddr() net.Addr {
	return &net.UnixAddr{Name: "host", Net: "serial"}
}

func (c *DeviceConn) SetDeadline(t time.Time) error {
	return c.f.SetDeadline(t)
}

func (c *DeviceConn) SetReadDeadline(t time.Time) error {
	return c.f.SetReadDeadline(t)
}

func (c *DeviceConn) SetWriteDeadline(t time.Time) error {
	return c.f.SetWriteDeadline(t)
}

// DeviceListener hands out the same device connection to every Accept,
// one session at a time.
type DeviceListener struct {
	mu     sync.Mutex
	conn   *DeviceConn
	closed bool
}

// ListenDevice opens devpath and returns a listener serving
// at most one connection at a time.
func ListenDevice(devpath string) (net.Listener, error) {
	c, err := DialDevice(devpath)
	if err != nil {
		laddr := &net.UnixAddr{Name: "serial:" + devpath, Net: "serial"}

		return nil, &net.OpError{Op: "dial", Net: "serial", Source: laddr, Err: err}
	}

	return netutil.LimitListener(&DeviceListener{conn: c}, 1), nil
}

func (ln *DeviceListener) Accept() (net.Conn, error) {
	time.Sleep(AcceptDelay)

	ln.mu.Lock()
	defer ln.mu.Unlock()

	if ln.closed {
		return nil, net.ErrClosed
	}

	return ln.conn, nil
}

func (ln *DeviceListener) Close() error {
	ln.mu.Lock()
	defer ln.mu.Unlock()

	if ln.closed {
		return syscall.EINVAL
	}

	ln.closed = true

	return ln.conn.f.Close()
}

func (ln *DeviceListener) Addr() net.Addr {
	return ln.conn.LocalAddr()
}
