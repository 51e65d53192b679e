package event

import (
	"context"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/log"
)

type Event interface {
	// String returns the name of the event.
	// The name must be simple and identify the event type, not the event content.
	// This name is used for metric-labeling.
	String() string
}

type Deriver interface {
	// OnEvent runs the event with the context that was used to emit the event.
	// OnEvent returns true if it recognizes the event as "processed",
	// for tracing/metrics purposes primarily.
	OnEvent(ctx context.Context, ev Event) bool
}

type Emitter interface {
	// Emit emits an event, broadcasting it to all derivers.
	// The context is provided to the deriver OnEvent function.
	//
	// Events emitted by the same emitter arrive in the same order as they were sent.
	Emit(ctx context.Context, ev Event)
}

type EmitterFunc func(ctx context.Context, ev Event)

func (fn EmitterFunc) Emit(ctx context.Context, ev Event) {
	fn(ctx, ev)
}

// DeriverMux takes an event-signal as deriver, and synchronously fans it out to all contained Deriver ends.
// Technically this is a DeMux: single input to multi output.
type DeriverMux []Deriver

func (s *DeriverMux) OnEvent(ctx context.Context, ev Event) bool {
	out := false
	for _, d := range *s {
		out = d.OnEvent(ctx, ev) || out
	}
	return out
}

var _ Deriver = (*DeriverMux)(nil)

// DebugDeriver logs every event it sees at debug level.
type DebugDeriver struct {
	Log log.Logger
}

func (d DebugDeriver) OnEvent(ctx context.Context, ev Event) bool {
	d.Log.Debug("on-event", "event", ev)
	return false
}

// DeriverFunc implements the Deriver interface as a function,
// similar to how the std-lib http HandlerFunc implements a Handler.
// This can be used for small in-place derivers, test helpers, etc.
type DeriverFunc func(ctx context.Context, ev Event) bool

func (fn DeriverFunc) OnEvent(ctx context.Context, ev Event) bool {
	return fn(ctx, ev)
}

type NoopEmitter struct{}

func (e NoopEmitter) Emit(ctx context.Context, ev Event) {}

// Bus is a synchronous Emitter. Every emitted event is delivered to
// the registered derivers in registration order before Emit returns.
type Bus struct {
	log log.Logger

	mu       sync.RWMutex
	nextID   uint64
	derivers []registered
}

type registered struct {
	id uint64
	d  Deriver
}

var _ Emitter = (*Bus)(nil)

func NewBus(logger log.Logger) *Bus {
	return &Bus{log: logger}
}

// Register adds a deriver to the bus. The returned function removes it again.
func (b *Bus) Register(d Deriver) (unregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.derivers = append(b.derivers, registered{id: id, d: d})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.derivers = slices.DeleteFunc(b.derivers, func(r registered) bool {
			return r.id == id
		})
	}
}

func (b *Bus) Emit(ctx context.Context, ev Event) {
	b.mu.RLock()
	derivers := slices.Clone(b.derivers)
	b.mu.RUnlock()
	processed := false
	for _, r := range derivers {
		processed = r.d.OnEvent(ctx, ev) || processed
	}
	if !processed && b.log != nil {
		b.log.Trace("Event not processed by any deriver", "event", ev)
	}
}

// Recorder is a Deriver that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

var _ Deriver = (*Recorder)(nil)

func (r *Recorder) OnEvent(ctx context.Context, ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
