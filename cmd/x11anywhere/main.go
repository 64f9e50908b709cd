// Command x11anywhere runs the display server: a single flag-driven
// process, no subcommands, following spec.md §6's CLI surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/backend/nullbackend"
	"github.com/x11anywhere/x11anywhere/internal/config"
	"github.com/x11anywhere/x11anywhere/internal/listen"
	"github.com/x11anywhere/x11anywhere/internal/server"
)

const (
	exitOK          = 0
	exitBadFlags    = 2
	exitBindFailure = 3
	exitBackendInit = 4
)

var availableBackends = []string{"x11", "wayland", "macos", "windows", "null"}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("x11anywhere", flag.ContinueOnError)
	display := fs.Int("display", 0, "display number N (socket path and TCP port derive from N)")
	backendName := fs.String("backend", "null", "backend: x11, wayland, macos, windows, null")
	tcp := fs.Bool("tcp", false, "bind the TCP listener on 6000+N")
	unixSocket := fs.Bool("unix", true, "bind the local-stream socket")
	securityName := fs.String("security", "default", "security policy: permissive, default, strict, or a path to a YAML override")
	listBackends := fs.Bool("list-backends", false, "print available backends and exit")

	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return exitBadFlags
	}

	if *listBackends {
		printBackends(os.Stdout)
		return exitOK
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	policy, err := config.Resolve(*securityName)
	if err != nil {
		log.Error("resolve security policy", "error", err)
		return exitBadFlags
	}
	if *tcp && !policy.AllowTCP {
		log.Error("TCP listener requested but the security policy disallows it", "policy", policy.Name)
		return exitBadFlags
	}

	be, err := newBackend(*backendName)
	if err != nil {
		log.Error("select backend", "error", err)
		return exitBadFlags
	}

	srv, err := server.New(server.Config{Backend: be, Policy: policy, Logger: log})
	if err != nil {
		log.Error("backend init", "error", err)
		return exitBackendInit
	}
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	listeners, unixBound, err := bindListeners(*display, *tcp, *unixSocket)
	if err != nil {
		log.Error("bind listener", "error", err)
		return exitBindFailure
	}
	if unixBound {
		defer listen.RemoveUnix(*display)
	}
	for _, l := range listeners {
		log.Info("listening", "addr", l.Addr())
		srv.Listen(ctx, l)
	}

	go srv.RunIngest(ctx)

	log.Info("x11anywhere started", "display", *display, "backend", *backendName, "security", policy.Name)
	<-ctx.Done()
	log.Info("shutting down")
	return exitOK
}

func newBackend(name string) (backend.Backend, error) {
	switch name {
	case "null":
		return nullbackend.New(), nil
	case "x11":
		return newX11Backend()
	case "wayland", "macos", "windows":
		return nil, fmt.Errorf("backend %q has no implementation on this platform", name)
	default:
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, availableBackends)
	}
}

func bindListeners(display int, tcp, unixSocket bool) ([]net.Listener, bool, error) {
	var listeners []net.Listener
	var unixBound bool
	if unixSocket {
		l, err := listen.Unix(display)
		if err != nil {
			return nil, false, err
		}
		listeners = append(listeners, l)
		unixBound = true
	}
	if tcp {
		l, err := listen.TCP(display)
		if err != nil {
			for _, prior := range listeners {
				prior.Close()
			}
			if unixBound {
				listen.RemoveUnix(display)
			}
			return nil, false, err
		}
		listeners = append(listeners, l)
	}
	return listeners, unixBound, nil
}

func printBackends(w *os.File) {
	if term.IsTerminal(int(w.Fd())) {
		fmt.Fprintln(w, "available backends:")
		for _, b := range availableBackends {
			fmt.Fprintf(w, "  %s\n", b)
		}
		return
	}
	for _, b := range availableBackends {
		fmt.Fprintln(w, b)
	}
}
