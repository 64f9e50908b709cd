// Package listen opens the two socket kinds spec.md §6 requires: a
// world-writable local-stream socket at the well-known per-display path,
// bound atomically via create-then-rename, and an optional TCP listener
// on 6000+N. The local-socket bind briefly clears the process umask with
// golang.org/x/sys/unix so the 0777 permission spec.md demands survives a
// restrictive default umask, then restores it.
package listen

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// UnixSocketDir is the conventional directory X clients probe for the
// per-display local-stream socket.
const UnixSocketDir = "/tmp/.X11-unix"

// SocketPath returns the well-known local-stream socket path for display
// number n.
func SocketPath(n int) string {
	return filepath.Join(UnixSocketDir, fmt.Sprintf("X%d", n))
}

// TCPAddr returns the listen address for display number n's TCP socket.
func TCPAddr(n int) string {
	return fmt.Sprintf(":%d", 6000+n)
}

// Unix binds the local-stream socket for display n. It creates the
// listener at a temp path in the same directory, chmods it 0777, then
// renames it into place so a client can never observe a partially
// configured socket at the well-known path.
func Unix(n int) (*net.UnixListener, error) {
	if err := os.MkdirAll(UnixSocketDir, 0777); err != nil {
		return nil, fmt.Errorf("listen: create %s: %w", UnixSocketDir, err)
	}
	final := SocketPath(n)
	tmp := fmt.Sprintf("%s.tmp-%d", final, os.Getpid())
	_ = os.Remove(tmp)

	old := unix.Umask(0)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: tmp, Net: "unix"})
	unix.Umask(old)
	if err != nil {
		return nil, fmt.Errorf("listen: bind %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0777); err != nil {
		l.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("listen: chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		l.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("listen: rename %s to %s: %w", tmp, final, err)
	}
	return l, nil
}

// RemoveUnix removes the local-stream socket for display n, called on
// server shutdown.
func RemoveUnix(n int) error {
	return os.Remove(SocketPath(n))
}

// TCP binds 0.0.0.0:6000+N.
func TCP(n int) (net.Listener, error) {
	l, err := net.Listen("tcp", TCPAddr(n))
	if err != nil {
		return nil, fmt.Errorf("listen: bind %s: %w", TCPAddr(n), err)
	}
	return l, nil
}
