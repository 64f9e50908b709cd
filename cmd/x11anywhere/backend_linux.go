//go:build linux

package main

import (
	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/backend/x11backend"
)

func newX11Backend() (backend.Backend, error) {
	return x11backend.New()
}
