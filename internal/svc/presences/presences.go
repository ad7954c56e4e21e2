package presences

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Handle is a live connection that events can be pushed to.
type Handle interface {
	ID() string
	Emit(event string, payload any) error
}

// Sink persists the advisory online flag of an identity.
type Sink interface {
	SetPresence(ctx context.Context, identity string, online bool, at time.Time) error
}

type Instance interface {
	// SetOnline maps identity to h, replacing any previous handle.
	SetOnline(identity string, h Handle)
	// Remove drops the mapping for identity, if any.
	Remove(identity string)
	// RemoveHandle drops the mapping only while it still points at h.
	RemoveHandle(identity string, h Handle) bool
	Get(identity string) (Handle, bool)
	Online(identity string) bool
	Count() int
	// BroadcastAll pushes to every live handle except the one mapped to exclude.
	BroadcastAll(event string, payload any, exclude string) error
	// Close stops accepting durable writes and waits for the queued ones to be applied.
	Close(ctx context.Context) error
}

type inst struct {
	mx      sync.RWMutex
	entries map[string]Handle

	sink    Sink
	timeout time.Duration
	now     func() time.Time
	// updates is closed once closed is set, both under mx
	updates chan update
	closed  bool
	done    chan struct{}
}

type update struct {
	identity string
	online   bool
	at       time.Time
}

type Options struct {
	Sink Sink
	// Timeout bounds a single durable presence write.
	Timeout time.Duration
	// Backlog is the number of durable writes allowed to queue up.
	Backlog int
	Now     func() time.Time
}

// New creates a registry. Durable presence writes are applied in order by
// one worker that runs until Close.
func New(opt Options) Instance {
	if opt.Timeout <= 0 {
		opt.Timeout = time.Second * 5
	}

	if opt.Backlog <= 0 {
		opt.Backlog = 1024
	}

	if opt.Now == nil {
		opt.Now = time.Now
	}

	p := &inst{
		entries: map[string]Handle{},
		sink:    opt.Sink,
		timeout: opt.Timeout,
		now:     opt.Now,
		updates: make(chan update, opt.Backlog),
		done:    make(chan struct{}),
	}

	if p.sink != nil {
		go p.persist()
	} else {
		close(p.done)
	}

	return p
}

// Durable writes are queued while mx is held so their order matches the map.

func (p *inst) SetOnline(identity string, h Handle) {
	p.mx.Lock()
	defer p.mx.Unlock()

	p.entries[identity] = h
	p.enqueue(identity, true)
}

func (p *inst) Remove(identity string) {
	p.mx.Lock()
	defer p.mx.Unlock()

	if _, ok := p.entries[identity]; ok {
		delete(p.entries, identity)
		p.enqueue(identity, false)
	}
}

func (p *inst) RemoveHandle(identity string, h Handle) bool {
	p.mx.Lock()
	defer p.mx.Unlock()

	cur, ok := p.entries[identity]
	if !ok || cur.ID() != h.ID() {
		return false
	}

	delete(p.entries, identity)
	p.enqueue(identity, false)

	return true
}

func (p *inst) Get(identity string) (Handle, bool) {
	p.mx.RLock()
	defer p.mx.RUnlock()

	h, ok := p.entries[identity]

	return h, ok
}

func (p *inst) Online(identity string) bool {
	_, ok := p.Get(identity)

	return ok
}

func (p *inst) Count() int {
	p.mx.RLock()
	defer p.mx.RUnlock()

	return len(p.entries)
}

func (p *inst) BroadcastAll(event string, payload any, exclude string) error {
	p.mx.RLock()
	targets := make([]Handle, 0, len(p.entries))

	for identity, h := range p.entries {
		if exclude != "" && identity == exclude {
			continue
		}

		targets = append(targets, h)
	}
	p.mx.RUnlock()

	var result *multierror.Error

	for _, h := range targets {
		if err := h.Emit(event, payload); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func (p *inst) Close(ctx context.Context) error {
	p.mx.Lock()
	if !p.closed {
		p.closed = true
		close(p.updates)
	}
	p.mx.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enqueue must be called with mx held.
func (p *inst) enqueue(identity string, online bool) {
	if p.sink == nil {
		return
	}

	if p.closed {
		zap.S().Warnw("presence registry closed, dropping durable update",
			"user_id", identity,
			"online", online,
		)

		return
	}

	u := update{identity: identity, online: online, at: p.now()}

	select {
	case p.updates <- u:
	default:
		zap.S().Warnw("presence backlog full, dropping durable update",
			"user_id", identity,
			"online", online,
		)
	}
}

func (p *inst) persist() {
	defer close(p.done)

	for u := range p.updates {
		lCtx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.sink.SetPresence(lCtx, u.identity, u.online, u.at); err != nil {
			zap.S().Errorw("failed to persist presence",
				"user_id", u.identity,
				"online", u.online,
				"error", err,
			)
		}
		cancel()
	}
}
