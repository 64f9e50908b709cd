package listen

import (
	"os"
	"testing"
)

func TestSocketPathAndTCPAddr(t *testing.T) {
	if got := SocketPath(7); got != "/tmp/.X11-unix/X7" {
		t.Errorf("SocketPath(7) = %q", got)
	}
	if got := TCPAddr(7); got != ":6007" {
		t.Errorf("TCPAddr(7) = %q", got)
	}
}

func TestUnixBindsWorldWritableSocket(t *testing.T) {
	const display = 99
	l, err := Unix(display)
	if err != nil {
		t.Fatalf("Unix: %v", err)
	}
	defer func() {
		l.Close()
		RemoveUnix(display)
	}()
	info, err := os.Stat(SocketPath(display))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0777 {
		t.Errorf("perm = %v, want 0777", info.Mode().Perm())
	}
}
