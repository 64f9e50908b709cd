package server

import (
	"context"
	"time"

	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/proto"
)

// pollInterval is how often RunIngest drains the backend's event queue.
// Host-mirrored input has no push path into this server, so polling is the
// only option available across every Backend implementation (spec.md §5).
const pollInterval = 16 * time.Millisecond

// RunIngest drains backend.PollEvents on a ticker and turns every event
// into the wire event it corresponds to, dispatched through the router
// exactly as a request-triggered event would be. It blocks until ctx is
// canceled, mirroring internal/daemon.Reconciler's ticker-driven loop
// shape in the donor repo.
func (s *Server) RunIngest(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ingestOnce()
		}
	}
}

func (s *Server) ingestOnce() {
	var evs []backend.Event
	s.backendCall(func() error {
		var err error
		evs, err = s.backend.PollEvents()
		return err
	})
	for _, ev := range evs {
		s.ingestOne(ev)
	}
	if len(evs) > 0 {
		s.backendCall(func() error { return s.backend.Flush() })
	}
}

func (s *Server) ingestOne(ev backend.Event) {
	window, ok := s.byHandle[ev.Window]
	if !ok {
		return
	}
	time := s.now()

	switch ev.Kind {
	case backend.EventExpose:
		s.router.DeliverDirect(window, proto.EventMaskExposure, evqueue.ExposeBuilder(window, ev.X, ev.Y, ev.Width, ev.Height, 0))

	case backend.EventKeyPress, backend.EventKeyRelease:
		pos, err := s.absolutePosition(window)
		if err != nil {
			return
		}
		rootX, rootY := pos.x+ev.X, pos.y+ev.Y
		if ev.Kind == backend.EventKeyPress {
			s.router.Dispatch(window, proto.EventMaskKeyPress, evqueue.KeyPressBuilder(ev.Keycode, time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State), s)
		} else {
			s.router.Dispatch(window, proto.EventMaskKeyRelease, evqueue.KeyReleaseBuilder(ev.Keycode, time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State), s)
		}

	case backend.EventButtonPress, backend.EventButtonRelease:
		pos, err := s.absolutePosition(window)
		if err != nil {
			return
		}
		rootX, rootY := pos.x+ev.X, pos.y+ev.Y
		if ev.Kind == backend.EventButtonPress {
			s.router.Dispatch(window, proto.EventMaskButtonPress, evqueue.ButtonPressBuilder(ev.Button, time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State), s)
		} else {
			s.router.Dispatch(window, proto.EventMaskButtonRelease, evqueue.ButtonReleaseBuilder(ev.Button, time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State), s)
		}

	case backend.EventMotionNotify:
		pos, err := s.absolutePosition(window)
		if err != nil {
			return
		}
		rootX, rootY := pos.x+ev.X, pos.y+ev.Y
		s.router.Dispatch(window, proto.EventMaskPointerMotion, evqueue.MotionNotifyBuilder(time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State), s)

	case backend.EventEnterNotify, backend.EventLeaveNotify:
		pos, err := s.absolutePosition(window)
		if err != nil {
			return
		}
		rootX, rootY := pos.x+ev.X, pos.y+ev.Y
		focus := window == s.focus
		if ev.Kind == backend.EventEnterNotify {
			s.router.Dispatch(window, proto.EventMaskEnterWindow, evqueue.EnterNotifyBuilder(time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State, focus), s)
		} else {
			s.router.Dispatch(window, proto.EventMaskLeaveWindow, evqueue.LeaveNotifyBuilder(time, s.rootID, window, 0, rootX, rootY, ev.X, ev.Y, ev.State, focus), s)
		}

	case backend.EventFocusIn:
		s.router.DeliverDirect(window, proto.EventMaskFocusChange, evqueue.FocusInBuilder(window))

	case backend.EventFocusOut:
		s.router.DeliverDirect(window, proto.EventMaskFocusChange, evqueue.FocusOutBuilder(window))

	case backend.EventConfigure:
		s.ingestConfigure(window, ev)

	case backend.EventMapNotify:
		if _, err := s.windows.SetMapped(window, true); err == nil {
			w, _ := s.windows.Snapshot(window)
			s.router.DeliverDirect(window, proto.EventMaskStructureNotify, evqueue.MapNotifyBuilder(window, window, w.OverrideRedirect))
		}

	case backend.EventUnmapNotify:
		if _, err := s.windows.SetMapped(window, false); err == nil {
			s.router.DeliverDirect(window, proto.EventMaskStructureNotify, evqueue.UnmapNotifyBuilder(window, window, false))
		}

	case backend.EventDestroyNotify:
		s.ingestDestroy(window)
	}
}

// ingestConfigure reflects a host-driven geometry change (the window
// manager on a mirrored host display resizing or moving the backing
// window) back into the window tree and fans out ConfigureNotify exactly
// as handleConfigureWindow does for a client-initiated change.
func (s *Server) ingestConfigure(window uint32, ev backend.Event) {
	x, y, width, height := ev.X, ev.Y, ev.Width, ev.Height
	_, after, changed, err := s.windows.Configure(window, &x, &y, &width, &height, nil, nil, nil)
	if err != nil || !changed {
		return
	}
	s.router.DeliverDirect(window, proto.EventMaskStructureNotify,
		evqueue.ConfigureNotifyBuilder(window, window, 0, after.X, after.Y, after.Width, after.Height, after.BorderWidth, false))
	if parent, perr := s.windows.Snapshot(window); perr == nil && parent.Parent != 0 {
		s.router.DeliverDirect(parent.Parent, proto.EventMaskSubstructureNotify,
			evqueue.ConfigureNotifyBuilder(parent.Parent, window, 0, after.X, after.Y, after.Width, after.Height, after.BorderWidth, false))
	}
}

// ingestDestroy tears down a window the host destroyed out from under this
// server (the user closed the mirrored window directly) without asking the
// backend to destroy it again, since it is already gone there.
func (s *Server) ingestDestroy(window uint32) {
	order, err := s.windows.Destroy(window)
	if err != nil {
		return
	}
	for _, wid := range order {
		s.router.DeliverDirect(wid, proto.EventMaskStructureNotify, evqueue.DestroyNotifyBuilder(wid, wid))
		s.router.ForgetWindow(wid)
		s.props.DeleteWindow(wid)
		s.sels.ClearWindow(wid)
		if h, ok := s.handles[wid]; ok {
			delete(s.byHandle, h)
			delete(s.handles, wid)
		}
		s.resources.Free(wid)
	}
}
