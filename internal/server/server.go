// Package server owns every piece of authoritative state spec.md §3/§5
// describes — the resource graph, window tree, GC table, atom/property/
// selection tables, event router, extension registry and the backend —
// and drives the listener and session loop of spec.md §4.11.
package server

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/x11anywhere/x11anywhere/internal/atomtab"
	"github.com/x11anywhere/x11anywhere/internal/backend"
	"github.com/x11anywhere/x11anywhere/internal/config"
	"github.com/x11anywhere/x11anywhere/internal/evqueue"
	"github.com/x11anywhere/x11anywhere/internal/gcontext"
	"github.com/x11anywhere/x11anywhere/internal/handshake"
	"github.com/x11anywhere/x11anywhere/internal/proto"
	"github.com/x11anywhere/x11anywhere/internal/propstore"
	"github.com/x11anywhere/x11anywhere/internal/protoerr"
	"github.com/x11anywhere/x11anywhere/internal/resource"
	"github.com/x11anywhere/x11anywhere/internal/selection"
	"github.com/x11anywhere/x11anywhere/internal/session"
	"github.com/x11anywhere/x11anywhere/internal/wintree"
	"github.com/x11anywhere/x11anywhere/internal/wire"
)

// serverVendor is the vendor string advertised in SetupReply.
const serverVendor = "x11anywhere"

// clientIDSpan is the number of resource ids each connected client is
// handed at handshake time (spec.md §3, "the lower bits are allocated by
// the client under a mask").
const clientIDSpan = 0x00200000

// Pixmap is the server's record of a client-allocated off-screen drawable,
// the GetGeometry/drawing-op counterpart of wintree.Window for surfaces
// with no place in the window tree.
type Pixmap struct {
	Width, Height uint16
	Depth         uint8
	Drawable      backend.Drawable
	Creator       resource.ClientID
}

// Config bundles the parameters Run needs beyond the security policy,
// mirroring internal/daemon.Reconciler's config-struct-plus-logger shape.
type Config struct {
	Backend backend.Backend
	Policy  config.SecurityPolicy
	Logger  *slog.Logger
}

// Server is the single process-wide state spec.md §9 calls for: one value
// constructed at startup, torn down explicitly at shutdown, with no
// hidden globals.
type Server struct {
	log    *slog.Logger
	policy config.SecurityPolicy

	backendMu sync.Mutex
	backend   backend.Backend

	resources *resource.Table
	windows   *wintree.Tree
	gcs       *gcontext.Table
	atoms     *atomtab.Table
	props     *propstore.Store
	sels      *selection.Table
	router    *evqueue.Router

	rootID          uint32
	rootVisual      uint32
	defaultColormap uint32
	screenInfo      backend.ScreenInfo
	visuals         []backend.VisualInfo

	sessMu       sync.Mutex
	sessions     map[resource.ClientID]*session.Session
	handles      map[uint32]backend.WindowHandle // window id -> backend handle
	byHandle     map[backend.WindowHandle]uint32 // backend handle -> window id
	pixmaps      map[uint32]Pixmap
	fonts        map[uint32]string
	cursors      map[uint32]bool
	colormaps    map[uint32]uint32 // colormap id -> visual it was created against
	installed    map[uint32]bool   // colormap id -> installed
	focus        uint32
	nextClientID uint32

	nextSessionID uint32 // session.ClientID, shared across every listener

	clock uint32 // logical timestamp, advanced per request

	listeners []net.Listener
}

// New constructs a Server with a single screen of the given size backed
// by cfg.Backend, and a root window/default colormap/default TrueColor
// visual already live in the resource graph (spec.md §4.2).
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := cfg.Backend.Init(); err != nil {
		return nil, fmt.Errorf("server: backend init: %w", err)
	}
	screenInfo, err := cfg.Backend.ScreenInfo()
	if err != nil {
		return nil, fmt.Errorf("server: query screen info: %w", err)
	}
	visuals, err := cfg.Backend.Visuals()
	if err != nil {
		return nil, fmt.Errorf("server: query visuals: %w", err)
	}

	s := &Server{
		log:       cfg.Logger,
		policy:    cfg.Policy,
		backend:   cfg.Backend,
		resources: resource.New(),
		gcs:       gcontext.New(),
		atoms:     atomtab.New(),
		props:     propstore.New(),
		sels:      selection.New(),
		sessions:  make(map[resource.ClientID]*session.Session),
		handles:   make(map[uint32]backend.WindowHandle),
		byHandle:  make(map[backend.WindowHandle]uint32),
		pixmaps:   make(map[uint32]Pixmap),
		fonts:     make(map[uint32]string),
		cursors:   make(map[uint32]bool),
		colormaps: make(map[uint32]uint32),
		installed: make(map[uint32]bool),
		screenInfo: screenInfo,
		visuals:    visuals,
	}
	s.router = evqueue.NewRouter(s)

	const (
		rootID          = 0x00000001
		rootVisualID    = 0x00000020
		defaultColormap = 0x00000021
	)
	s.rootID = rootID
	s.rootVisual = rootVisualID
	s.defaultColormap = defaultColormap
	if len(visuals) > 0 {
		s.rootVisual = visuals[0].ID
	}

	s.windows = wintree.New(rootID, uint16(screenInfo.WidthPixels), uint16(screenInfo.HeightPixels), screenInfo.RootDepth, s.rootVisual)
	if err := s.resources.Alloc(resource.ServerClientID, rootID, resource.KindWindow); err != nil {
		return nil, fmt.Errorf("server: alloc root window: %w", err)
	}
	if err := s.resources.Alloc(resource.ServerClientID, defaultColormap, resource.KindColormap); err != nil {
		return nil, fmt.Errorf("server: alloc default colormap: %w", err)
	}

	handle, err := cfg.Backend.CreateWindow(backend.WindowParams{
		Width: uint16(screenInfo.WidthPixels), Height: uint16(screenInfo.HeightPixels),
	})
	if err != nil {
		return nil, fmt.Errorf("server: create root backend window: %w", err)
	}
	s.handles[rootID] = handle
	s.byHandle[handle] = rootID
	s.focus = rootID
	s.colormaps[defaultColormap] = s.rootVisual
	s.installed[defaultColormap] = true

	return s, nil
}

// now returns the server's logical timestamp and advances it, used to
// stamp SelectionClear/SetSelectionOwner/PropertyNotify times (spec.md
// §4.7) without depending on wall-clock precision.
func (s *Server) now() uint32 {
	return atomic.AddUint32(&s.clock, 1)
}

// ByteOrder and Sequence satisfy evqueue.ClientInfo by consulting the live
// session for client, if any.
func (s *Server) ByteOrder(client resource.ClientID) (binary.ByteOrder, bool) {
	s.sessMu.Lock()
	sess, ok := s.sessions[client]
	s.sessMu.Unlock()
	if !ok {
		return nil, false
	}
	return sess.ByteOrder(), true
}

func (s *Server) Sequence(client resource.ClientID) uint16 {
	s.sessMu.Lock()
	sess, ok := s.sessions[client]
	s.sessMu.Unlock()
	if !ok {
		return 0
	}
	return sess.Sequence()
}

// Ancestors and DoNotPropagateMask satisfy evqueue.AncestorLookup.
func (s *Server) Ancestors(window uint32) []uint32 {
	anc, err := s.windows.Ancestors(window)
	if err != nil {
		return nil
	}
	return anc
}

func (s *Server) DoNotPropagateMask(window uint32) uint32 {
	w, err := s.windows.Snapshot(window)
	if err != nil {
		return 0
	}
	return w.DoNotPropagateMask
}

// Authenticate implements session.Dispatcher: this server accepts any
// protocol major version 11 connection and any authorization data,
// matching the permissive-handshake behavior spec.md §4.2 describes.
func (s *Server) Authenticate(p handshake.Prologue) (handshake.AcceptParams, resource.Range, bool, string) {
	if p.ProtocolMajor != 11 {
		return handshake.AcceptParams{}, resource.Range{}, false, "unsupported protocol major version"
	}
	clientIdx := atomic.AddUint32(&s.nextClientID, 1)
	base := 0x00400000 + clientIdx*clientIDSpan
	rrange := resource.Range{Base: base, Mask: clientIDSpan - 1}

	params := handshake.AcceptParams{
		Vendor:           serverVendor,
		ReleaseNumber:    1,
		ResourceIDBase:   base,
		ResourceIDMask:   rrange.Mask,
		MaxRequestLength: 65535,
		MinKeycode:       8,
		MaxKeycode:       255,
		Screens: []handshake.ScreenParams{
			{
				Root:            s.rootID,
				DefaultColormap: s.defaultColormap,
				RootVisual:      s.rootVisual,
				Info:            s.screenInfo,
				Visuals:         s.visuals,
			},
		},
	}
	return params, rrange, true, ""
}

// RegisterClient records a session's id range and plugs it into the
// event router once its handshake has completed.
func (s *Server) RegisterClient(sess *session.Session) {
	s.resources.SetRange(sess.ID, sess.ResourceRange)
	s.sessMu.Lock()
	s.sessions[sess.ID] = sess
	s.sessMu.Unlock()
	s.router.RegisterClient(sess.ID, sess.Queue)
}

// UnregisterClient runs the full teardown cascade spec.md §4.3 describes
// for a disconnected client: every window it created is destroyed in
// post-order with DestroyNotify fanned out, every selection it owned is
// released, and its non-window resources are dropped from the graph.
func (s *Server) UnregisterClient(id resource.ClientID) {
	s.sessMu.Lock()
	delete(s.sessions, id)
	s.sessMu.Unlock()
	s.router.UnregisterClient(id)

	freed := s.resources.FreeAllByCreator(id)
	for _, e := range freed {
		switch e.Kind {
		case resource.KindWindow:
			s.destroyWindowCascade(e.ID)
		case resource.KindGC:
			s.gcs.Free(e.ID)
		case resource.KindPixmap:
			s.freePixmap(e.ID)
		}
	}
}

// freePixmap releases a pixmap's backend storage and removes it from the
// server's table; it is a no-op if id does not name a live pixmap, which
// happens when the resource table's FreeAllByCreator races a client's own
// explicit FreePixmap for the same id.
func (s *Server) freePixmap(id uint32) {
	pm, ok := s.pixmaps[id]
	if !ok {
		return
	}
	delete(s.pixmaps, id)
	s.backendCall(func() error { return s.backend.FreePixmap(pm.Drawable) })
}

// destroyWindowCascade destroys id and every descendant, in the post-order
// spec.md §4.3 requires for DestroyNotify delivery, then runs the per-window
// teardown every destroyed id needs.
func (s *Server) destroyWindowCascade(id uint32) {
	order, err := s.windows.Destroy(id)
	if err != nil {
		return
	}
	s.finishDestroy(order)
}

// finishDestroy runs the shared teardown for a batch of already-removed
// window ids (post-order): DestroyNotify fanned out to the window itself
// (StructureNotify) and to its parent (SubstructureNotify), selection and
// property cleanup, event-router bookkeeping, and backend window release.
// Callers have already removed these ids from the window tree.
func (s *Server) finishDestroy(order []uint32) {
	for _, wid := range order {
		s.router.DeliverDirect(wid, proto.EventMaskStructureNotify, evqueue.DestroyNotifyBuilder(wid, wid))
		s.router.ForgetWindow(wid)
		s.props.DeleteWindow(wid)
		s.sels.ClearWindow(wid) // the owning window is gone; no SelectionClear recipient remains
		if h, ok := s.handles[wid]; ok {
			s.backendCall(func() error { return s.backend.DestroyWindow(h) })
			delete(s.byHandle, h)
			delete(s.handles, wid)
		}
		s.resources.Free(wid)
	}
}

// backendCall serializes one call against the shared backend instance,
// the single critical section spec.md §5 requires around it.
func (s *Server) backendCall(f func() error) error {
	s.backendMu.Lock()
	defer s.backendMu.Unlock()
	return f()
}

// HandleRequest implements session.Dispatcher by looking opcode up in the
// dispatch table built in dispatch.go.
func (s *Server) HandleRequest(sess *session.Session, h wire.RequestHeader, body []byte, seq uint16) (reply []byte, err error) {
	handler, ok := dispatchTable[h.Opcode]
	if !ok {
		return nil, protoerr.New(protoerr.Request, h.Opcode, 0, 0)
	}
	req := &request{
		srv: s, sess: sess, opcode: h.Opcode, detail: h.Detail, body: body, seq: seq,
		order: sess.ByteOrder(),
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", "opcode", h.Opcode, "client", sess.ID, "panic", r)
			reply, err = nil, protoerr.New(protoerr.Implementation, h.Opcode, 0, 0)
		}
	}()
	return handler(req)
}

// Listen starts a goroutine accepting connections on l, dispatching each
// to a new session. It returns immediately; Stop (via ctx cancellation)
// ends the accept loop.
func (s *Server) Listen(ctx context.Context, l net.Listener) {
	s.listeners = append(s.listeners, l)
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				s.log.Error("accept", "error", err)
				return
			}
			clientID := atomic.AddUint32(&s.nextSessionID, 1)
			sess := session.New(resource.ClientID(clientID), conn)
			go func() {
				if err := sess.Run(ctx, s); err != nil {
					s.log.Info("session ended", "client", sess.ID, "error", err)
				}
			}()
		}
	}()
}

// Close releases every listener and the backend, the teardown half of
// spec.md §9's explicit init/teardown pair.
func (s *Server) Close() error {
	for _, l := range s.listeners {
		l.Close()
	}
	s.backendMu.Lock()
	defer s.backendMu.Unlock()
	if closer, ok := s.backend.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
