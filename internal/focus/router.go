package focus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/skypro1111/voicecapture/internal/session"
)

// SurfaceID identifies a registered surface. It is used as the session origin.
type SurfaceID string

// Surface receives the results and status of sessions it started
type Surface interface {
	Deliver(text string) error
	ShowStatus(message string)
	ShowError(reason string)
}

// Coordinator is the part of session.Coordinator the router drives
type Coordinator interface {
	BeginPress(origin string) bool
	Release() bool
	Cancel() bool
	Snapshot() session.Status
	Subscribe(buffer int) (<-chan session.Event, func())
}

// Option customizes a Router
type Option func(*Router)

// WithAcceptBroadcast controls whether results with an empty request id go to
// the focused surface. Enabled by default.
func WithAcceptBroadcast(accept bool) Option {
	return func(r *Router) {
		r.acceptBroadcast = accept
	}
}

// Stats represents router statistics
type Stats struct {
	Surfaces  int    `json:"surfaces"`
	Focused   string `json:"focused,omitempty"`
	Delivered uint64 `json:"delivered"`
	Discarded uint64 `json:"discarded"`
	Failed    uint64 `json:"delivery_failures"`
}

// Router tracks the focus holder and dispatches coordinator events
type Router struct {
	coord           Coordinator
	logger          *slog.Logger
	acceptBroadcast bool

	surfaces map[SurfaceID]Surface
	focused  SurfaceID

	delivered uint64
	discarded uint64
	failed    uint64

	mu sync.RWMutex
}

// NewRouter creates a router for one coordinator
func NewRouter(coord Coordinator, logger *slog.Logger, opts ...Option) *Router {
	r := &Router{
		coord:           coord,
		logger:          logger,
		acceptBroadcast: true,
		surfaces:        make(map[SurfaceID]Surface),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a surface and returns its id. The surface does not hold focus
// until Focus is called.
func (r *Router) Register(s Surface) SurfaceID {
	id := SurfaceID(uuid.NewString())

	r.mu.Lock()
	r.surfaces[id] = s
	r.mu.Unlock()

	r.logger.Debug("Surface registered", slog.String("surface", string(id)))
	return id
}

// Unregister removes a surface, cancelling its session if it has one
func (r *Router) Unregister(id SurfaceID) {
	r.Blur(id)

	r.mu.Lock()
	delete(r.surfaces, id)
	r.mu.Unlock()

	r.logger.Debug("Surface unregistered", slog.String("surface", string(id)))
}

// Focus gives focus to a registered surface. The previous holder is blurred.
func (r *Router) Focus(id SurfaceID) error {
	r.mu.Lock()
	if _, ok := r.surfaces[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("surface %s is not registered", id)
	}
	previous := r.focused
	r.focused = id
	r.mu.Unlock()

	if previous != "" && previous != id {
		r.cancelOwned(previous, "focus moved")
	}

	return nil
}

// Blur removes focus from a surface and cancels the session it owns
func (r *Router) Blur(id SurfaceID) {
	r.mu.Lock()
	if r.focused == id {
		r.focused = ""
	}
	r.mu.Unlock()

	r.cancelOwned(id, "focus lost")
}

// Focused returns the focus holder, or "" when no surface holds focus
func (r *Router) Focused() SurfaceID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focused
}

// Press begins a press for the surface. Only the focus holder may start a session.
func (r *Router) Press(id SurfaceID) bool {
	if r.Focused() != id {
		r.logger.Debug("Press ignored for unfocused surface", slog.String("surface", string(id)))
		return false
	}
	return r.coord.BeginPress(string(id))
}

// Release ends the press of the surface that owns the active session
func (r *Router) Release(id SurfaceID) bool {
	if !r.owns(id) {
		return false
	}
	return r.coord.Release()
}

// Cancel aborts the session owned by the surface
func (r *Router) Cancel(id SurfaceID) bool {
	if !r.owns(id) {
		return false
	}
	return r.coord.Cancel()
}

// Run dispatches coordinator events until ctx is done or the coordinator closes
func (r *Router) Run(ctx context.Context) error {
	events, unsubscribe := r.coord.Subscribe(0)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.dispatch(ev)
		}
	}
}

// Stats returns router statistics
func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Stats{
		Surfaces:  len(r.surfaces),
		Focused:   string(r.focused),
		Delivered: r.delivered,
		Discarded: r.discarded,
		Failed:    r.failed,
	}
}

func (r *Router) owns(id SurfaceID) bool {
	st := r.coord.Snapshot()
	return st.State != session.StateIdle && st.Origin == string(id)
}

func (r *Router) cancelOwned(id SurfaceID, why string) {
	if !r.owns(id) {
		return
	}
	if r.coord.Cancel() {
		r.logger.Info("Session cancelled for surface",
			slog.String("surface", string(id)),
			slog.String("reason", why))
	}
}

func (r *Router) dispatch(ev session.Event) {
	switch ev.Kind {
	case session.EventFinished:
		r.deliver(ev)
	case session.EventStatus:
		if s := r.target(ev); s != nil {
			s.ShowStatus(ev.Message)
		}
	case session.EventError:
		if s := r.target(ev); s != nil {
			s.ShowError(ev.Reason)
		}
	case session.EventStarted:
		r.logger.Debug("Session started for surface",
			slog.String("surface", ev.Origin),
			slog.String("request_id", ev.RequestID))
	}
}

// target resolves the surface for status and error events: the origin when it
// is registered, otherwise the focus holder.
func (r *Router) target(ev session.Event) Surface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.surfaces[SurfaceID(ev.Origin)]; ok {
		return s
	}
	return r.surfaces[r.focused]
}

func (r *Router) deliver(ev session.Event) {
	r.mu.Lock()
	var id SurfaceID
	switch {
	case ev.RequestID == "":
		if r.acceptBroadcast {
			id = r.focused
		}
	case SurfaceID(ev.Origin) == r.focused:
		id = r.focused
	}

	s, ok := r.surfaces[id]
	if !ok {
		r.discarded++
		r.mu.Unlock()
		r.logger.Info("Discarding recognized text, originating surface not focused",
			slog.String("request_id", ev.RequestID),
			slog.String("surface", ev.Origin))
		return
	}
	r.mu.Unlock()

	if err := s.Deliver(ev.Text); err != nil {
		r.mu.Lock()
		r.failed++
		r.mu.Unlock()

		r.logger.Error("Failed to deliver recognized text",
			slog.String("request_id", ev.RequestID),
			slog.String("surface", string(id)),
			slog.String("error", err.Error()))
		s.ShowError(fmt.Sprintf("failed to insert text: %v", err))
		return
	}

	r.mu.Lock()
	r.delivered++
	r.mu.Unlock()

	r.logger.Debug("Recognized text delivered",
		slog.String("request_id", ev.RequestID),
		slog.String("surface", string(id)))
}
