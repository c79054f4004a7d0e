package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ambulance-list/internal/models"

	"go.uber.org/zap"
)

var (
	ErrMissingDepartmentID = errors.New("department id is required")
	ErrMissingAPIBase      = errors.New("api base is required")
	ErrNoFetcher           = errors.New("transport fetcher is required")
	ErrClosed              = errors.New("transport list view is closed")
)

type Config struct {
	DepartmentID string
	APIBase      string
}

func (c Config) Validate() error {
	if c.DepartmentID == "" {
		return ErrMissingDepartmentID
	}
	if c.APIBase == "" {
		return ErrMissingAPIBase
	}
	return nil
}

type State int

const (
	StateIdle State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// TransportListView holds the transports of one department and renders them
// into a list tree. State changes mark the view dirty; a single render loop
// goroutine turns pending changes into a new tree.
type TransportListView struct {
	cfg     Config
	fetcher TransportFetcher
	logger  *zap.Logger

	mu         sync.Mutex
	transports []models.TransportRecord
	state      State
	version    uint64 // bumped on every state change
	rendered   uint64 // version reflected by root
	root       *Node
	changed    chan struct{} // closed after each render pass
	subs       map[int]chan *Node
	nextSub    int
	closed     bool

	kick    chan struct{}
	quit    chan struct{}
	stopped chan struct{}
}

func NewTransportListView(cfg Config, fetcher TransportFetcher, logger *zap.Logger) (*TransportListView, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid view config: %w", err)
	}
	if fetcher == nil {
		return nil, ErrNoFetcher
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	v := &TransportListView{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With(zap.String("department_id", cfg.DepartmentID)),
		root:    renderTree(cfg.DepartmentID, nil, false),
		changed: make(chan struct{}),
		subs:    make(map[int]chan *Node),
		kick:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go v.loop()
	return v, nil
}

func (v *TransportListView) Config() Config { return v.cfg }

// SetTransports replaces the displayed sequence and schedules a render.
// Invalid input is rejected and the current state is kept.
func (v *TransportListView) SetTransports(transports []models.TransportRecord) error {
	if err := models.ValidateTransports(transports); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.transports = models.CloneTransports(transports)
	v.state = StateReady
	v.markDirtyLocked()
	return nil
}

// Refresh pulls the department's transports from the fetcher. A provider
// failure clears the list and puts the view into the failed state.
//
// The view is left untouched when ctx ends before the fetch does, and when
// another update lands while the fetch is in flight.
func (v *TransportListView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	started := v.version
	v.mu.Unlock()

	transports, err := v.fetcher.FetchTransports(ctx, v.cfg.DepartmentID)
	if err == nil {
		err = models.ValidateTransports(transports)
	}
	if err != nil {
		err = fmt.Errorf("refresh transports for department %s: %w", v.cfg.DepartmentID, err)
		if ctx.Err() != nil {
			v.logger.Warn("Refresh abandoned by caller", zap.Error(err))
			return err
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		if err != nil {
			return err
		}
		return ErrClosed
	}
	if v.version != started {
		v.logger.Debug("Discarding refresh superseded by a newer update", zap.Error(err))
		return err
	}

	if err != nil {
		v.logger.Error("Failed to refresh transports", zap.Error(err))
		v.transports = nil
		v.state = StateFailed
		v.markDirtyLocked()
		return err
	}

	v.transports = models.CloneTransports(transports)
	v.state = StateReady
	v.markDirtyLocked()
	v.logger.Debug("Refreshed transports", zap.Int("count", len(transports)))
	return nil
}

func (v *TransportListView) Transports() []models.TransportRecord {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.CloneTransports(v.transports)
}

func (v *TransportListView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Root returns the most recently rendered tree. Published trees are never
// modified.
func (v *TransportListView) Root() *Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// WaitForChanges blocks until every state change made before the call is
// reflected in Root.
func (v *TransportListView) WaitForChanges(ctx context.Context) error {
	v.mu.Lock()
	target := v.version
	v.mu.Unlock()

	for {
		v.mu.Lock()
		if v.rendered >= target {
			v.mu.Unlock()
			return nil
		}
		ch := v.changed
		v.mu.Unlock()

		select {
		case <-ch:
		case <-v.stopped:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe returns a channel that receives each newly rendered tree. The
// channel holds at most one tree; a slow reader only sees the newest one.
// The returned func unsubscribes and closes the channel.
func (v *TransportListView) Subscribe() (<-chan *Node, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan *Node, 1)
	if v.closed {
		close(ch)
		return ch, func() {}
	}
	id := v.nextSub
	v.nextSub++
	v.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if c, ok := v.subs[id]; ok {
				delete(v.subs, id)
				close(c)
			}
		})
	}
}

// Close stops the render loop and closes every subscriber channel.
func (v *TransportListView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	close(v.quit)
	for id, c := range v.subs {
		delete(v.subs, id)
		close(c)
	}
	v.mu.Unlock()
	<-v.stopped
}

func (v *TransportListView) markDirtyLocked() {
	v.version++
	select {
	case v.kick <- struct{}{}:
	default:
	}
}

func (v *TransportListView) loop() {
	defer close(v.stopped)
	for {
		select {
		case <-v.kick:
			v.renderPass()
		case <-v.quit:
			return
		}
	}
}

func (v *TransportListView) renderPass() {
	v.mu.Lock()
	target := v.version
	transports := v.transports
	failed := v.state == StateFailed
	v.mu.Unlock()

	// transports is replaced wholesale on change, never mutated, so it is
	// safe to read without the lock.
	root := renderTree(v.cfg.DepartmentID, transports, failed)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.root = root
	v.rendered = target
	close(v.changed)
	v.changed = make(chan struct{})

	for _, c := range v.subs {
		select {
		case <-c:
		default:
		}
		c <- root
	}

	v.logger.Debug("Rendered transport list",
		zap.Uint64("version", target),
		zap.Int("entries", len(transports)),
	)
}
