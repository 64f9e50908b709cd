//go:build !linux

package main

import (
	"fmt"

	"github.com/x11anywhere/x11anywhere/internal/backend"
)

func newX11Backend() (backend.Backend, error) {
	return nil, fmt.Errorf("x11 backend requires a host X connection, not available on this platform")
}
