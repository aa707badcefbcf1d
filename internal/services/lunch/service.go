// Package lunch serializes every mutation of the shared document through one
// goroutine and keeps a short-lived snapshot for the polling clients.
package lunch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"lunch-system/internal/cutoff"
	"lunch-system/internal/domain"
	"lunch-system/internal/events"
	"lunch-system/internal/ledger"
	"lunch-system/internal/store"
)

const (
	maxAttempts    = 3
	queueTimeout   = 5 * time.Second
	publishTimeout = 2 * time.Second
)

var (
	ErrStoreUnavailable = errors.New("document store unavailable")
	ErrBusy             = errors.New("lunch service is busy")
)

// Result is the outcome of a dispatched action. Document is the stored
// document on success and the unchanged one on a rejected action.
type Result struct {
	Document domain.Document
	Placed   *domain.Order
}

type command struct {
	ctx   context.Context
	req   ledger.Request
	role  domain.Role
	reply chan commandResult
}

type commandResult struct {
	res Result
	err error
}

type Service struct {
	store       store.Store
	gate        *cutoff.Gate
	events      events.Publisher
	newID       func() string
	snapshotTTL time.Duration
	timeout     time.Duration

	commands chan command
	quit     chan struct{}
	once     sync.Once

	mu         sync.RWMutex
	snapshot   domain.Document
	snapshotAt time.Time
	cached     bool
}

type Option func(*Service)

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func WithSnapshotTTL(ttl time.Duration) Option {
	return func(s *Service) { s.snapshotTTL = ttl }
}

// WithQueueTimeout bounds how long one Dispatch may wait and write.
func WithQueueTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService starts the writer goroutine immediately.
func NewService(st store.Store, gate *cutoff.Gate, pub events.Publisher, opts ...Option) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	svc := &Service{
		store:       st,
		gate:        gate,
		events:      pub,
		newID:       func() string { return uuid.NewString() },
		snapshotTTL: 2 * time.Second,
		timeout:     queueTimeout,
		commands:    make(chan command),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(svc)
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			res, err := s.apply(cmd.ctx, cmd.req, cmd.role)
			cmd.reply <- commandResult{res: res, err: err}
		case <-s.quit:
			return
		}
	}
}

// Dispatch queues one action and waits for the writer to apply it. The
// deadline travels with the command, so an action that reports ErrBusy was
// never saved.
func (s *Service) Dispatch(ctx context.Context, req ledger.Request, role domain.Role) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply := make(chan commandResult, 1)
	cmd := command{ctx: ctx, req: req, role: role, reply: reply}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return Result{}, busy(req.Action, ctx.Err())
	case <-s.quit:
		return Result{}, ErrBusy
	}

	// the writer always replies and honors ctx
	r := <-reply
	return r.res, r.err
}

func busy(action ledger.Action, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBusy, action, err)
}

// apply runs load -> transform -> save, retrying when another writer saved
// in between. Stock is re-validated against the fresh document every time.
func (s *Service) apply(ctx context.Context, req ledger.Request, role domain.Role) (Result, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, busy(req.Action, err)
		}
		doc, err := s.store.Load(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, busy(req.Action, ctx.Err())
			}
			return Result{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		env := ledger.Env{
			Now:          s.gate.Now(),
			NewID:        s.newID,
			Role:         role,
			OrderingOpen: s.gate.Open,
		}
		next, eff, err := ledger.Apply(doc, req, env)
		if err != nil {
			s.remember(doc)
			return Result{Document: doc}, err
		}

		if err := ctx.Err(); err != nil {
			return Result{Document: doc}, busy(req.Action, err)
		}
		stored, err := s.store.Save(ctx, next, doc.Revision)
		if errors.Is(err, store.ErrRevisionConflict) {
			log.Printf("lunch: %s hit revision %d conflict (attempt %d/%d)", req.Action, doc.Revision, attempt, maxAttempts)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Result{Document: doc}, busy(req.Action, ctx.Err())
			}
			return Result{Document: doc}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		s.remember(stored)
		s.publish(eff)
		return Result{Document: stored, Placed: eff.Placed}, nil
	}
	return Result{}, store.ErrRevisionConflict
}

func (s *Service) publish(eff ledger.Effect) {
	if eff.Event == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var batch []events.OrderEvent
	now := s.gate.Now()
	if eff.Placed != nil {
		batch = append(batch, orderEvent(eff.Event, *eff.Placed, now))
	}
	for _, o := range eff.Gone {
		batch = append(batch, orderEvent(eff.Event, o, now))
	}
	if len(batch) == 0 {
		batch = append(batch, events.OrderEvent{EventType: eff.Event, Timestamp: now})
	}

	for _, ev := range batch {
		if err := s.events.Publish(ctx, ev); err != nil {
			log.Printf("lunch: failed to publish %s: %v", ev.EventType, err)
		}
	}
}

func orderEvent(kind string, o domain.Order, at time.Time) events.OrderEvent {
	return events.OrderEvent{EventType: kind, OrderID: o.ID, Matricola: o.Matricola, Items: o.Items, Timestamp: at}
}

func (s *Service) remember(doc domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = doc
	s.snapshotAt = time.Now()
	s.cached = true
}

// Document returns the current document, served from the snapshot while it
// is younger than the snapshot TTL.
func (s *Service) Document(ctx context.Context) (domain.Document, error) {
	s.mu.RLock()
	if s.cached && time.Since(s.snapshotAt) < s.snapshotTTL {
		doc := s.snapshot.Clone()
		s.mu.RUnlock()
		return doc, nil
	}
	s.mu.RUnlock()

	doc, err := s.store.Load(ctx)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	s.remember(doc)
	return doc.Clone(), nil
}

// OrderingOpen evaluates the cutoff gate against the stored config.
func (s *Service) OrderingOpen(ctx context.Context) (bool, domain.Document, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return false, domain.Document{}, err
	}
	return s.gate.Open(doc.Config.DisableCutoff), doc, nil
}

func (s *Service) Gate() *cutoff.Gate { return s.gate }

func (s *Service) StorageMode() string { return s.store.Mode() }

func (s *Service) Ping(ctx context.Context) error { return s.store.Ping(ctx) }

// Close stops the writer goroutine. Pending Dispatch calls return ErrBusy.
func (s *Service) Close() {
	s.once.Do(func() { close(s.quit) })
}
