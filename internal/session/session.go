// Package session orchestrates one search at a time: it validates the
// request, builds and lays out a fresh snapshot, and runs the selected
// traversal on a background goroutine, reporting back through an event
// channel so the presentation side never shares mutable state with the
// engine.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/agentic-research/treesearch/api"
	"github.com/agentic-research/treesearch/internal/fs"
	"github.com/agentic-research/treesearch/internal/graph"
	"github.com/agentic-research/treesearch/internal/ingest"
	"github.com/agentic-research/treesearch/internal/layout"
	"github.com/agentic-research/treesearch/internal/traverse"
)

// ErrBusy is returned by Start while a previous run is still in flight.
var ErrBusy = errors.New("a search is already running")

const defaultProgressBuffer = 256

// EventKind discriminates Event.
type EventKind int

const (
	// EventSnapshot carries the built and laid-out snapshot.
	EventSnapshot EventKind = iota
	// EventProgress carries one status message for a visited node.
	EventProgress
	// EventDone carries the final result or the error that ended the run.
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventProgress:
		return "progress"
	case EventDone:
		return "done"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is sent from the background run to the consumer.
type Event struct {
	Kind     EventKind
	Message  string
	Snapshot *graph.Snapshot
	Result   *api.Result
	Err      error
}

// Session owns the snapshot being presented and guarantees that at most one
// traversal runs at a time.
type Session struct {
	lister         fs.Lister
	logger         *zap.Logger
	progressBuffer int
	relist         bool

	running atomic.Bool
	current *graph.HotSwapSnapshot

	mu     sync.Mutex
	cancel context.CancelFunc
	last   *api.Result
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProgressBuffer sets how many progress events may queue before new
// ones are dropped.
func WithProgressBuffer(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.progressBuffer = n
		}
	}
}

// WithRelisting makes traversals re-list directories from the live
// filesystem, filtered by the snapshot boundary.
func WithRelisting(on bool) Option {
	return func(s *Session) {
		s.relist = on
	}
}

func New(lister fs.Lister, opts ...Option) *Session {
	s := &Session{
		lister:         lister,
		logger:         zap.NewNop(),
		progressBuffer: defaultProgressBuffer,
		current:        graph.NewHotSwapSnapshot(nil),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Validate checks req before any work starts and returns it normalized:
// the root path is absolute and cleaned, the algorithm canonical.
func (s *Session) Validate(req api.Request) (api.Request, error) {
	algo, err := api.ParseAlgorithm(string(req.Algorithm))
	if err != nil {
		return req, err
	}
	req.Algorithm = algo

	if req.RootPath == "" {
		return req, fmt.Errorf("%w: empty path", ingest.ErrInvalidRoot)
	}
	root := filepath.Clean(req.RootPath)
	if !filepath.IsAbs(root) {
		if root, err = filepath.Abs(root); err != nil {
			return req, fmt.Errorf("%w: %v", ingest.ErrInvalidRoot, err)
		}
	}
	if !s.lister.Exists(root) || !s.lister.IsDir(root) {
		return req, fmt.Errorf("%w: %s", ingest.ErrInvalidRoot, root)
	}
	req.RootPath = root

	if req.MaxDepth < 0 || req.MaxFanout < 0 || req.Delay < 0 {
		return req, fmt.Errorf("invalid limits: depth=%d fanout=%d delay=%s", req.MaxDepth, req.MaxFanout, req.Delay)
	}
	return req, nil
}

// Start validates req and launches the run in the background. The returned
// channel yields EventSnapshot, zero or more EventProgress, then exactly one
// EventDone, and is closed afterwards. Consumers must drain it.
func (s *Session) Start(ctx context.Context, req api.Request) (<-chan Event, error) {
	req, err := s.Validate(req)
	if err != nil {
		return nil, err
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	// Shared state from the previous run is dropped before anything new is built.
	s.current.Clear()

	events := make(chan Event, s.progressBuffer+2)
	go s.run(runCtx, req, events)
	return events, nil
}

func (s *Session) run(ctx context.Context, req api.Request, events chan Event) {
	defer close(events)
	defer s.running.Store(false)
	defer func() {
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	log := s.logger.With(
		zap.String("root", req.RootPath),
		zap.String("pattern", req.Pattern),
		zap.String("algo", string(req.Algorithm)),
		zap.Bool("find_all", req.FindAll))

	started := time.Now()
	snap, err := ingest.Build(ctx, s.lister, req.RootPath, ingest.Options{
		MaxDepth:  req.MaxDepth,
		MaxFanout: req.MaxFanout,
		Logger:    s.logger,
	})
	if err != nil {
		log.Warn("snapshot build failed", zap.Error(err))
		events <- Event{Kind: EventDone, Err: err}
		return
	}
	layout.Layout(snap.Root)
	s.current.Swap(snap)
	events <- Event{Kind: EventSnapshot, Snapshot: snap}
	log.Debug("snapshot ready", zap.Int("nodes", snap.Len()))

	opts := traverse.Options{
		Delay:  req.Delay,
		Logger: s.logger,
		Progress: func(msg string) {
			// The last slot is reserved for EventDone. This goroutine is the
			// only sender, so len cannot grow underneath the check.
			if len(events) >= cap(events)-1 {
				return
			}
			events <- Event{Kind: EventProgress, Message: msg}
		},
	}
	if s.relist {
		opts.Lister = s.lister
	}

	searchStart := time.Now()
	st, err := traverse.Run(ctx, req.Algorithm, snap, req.Pattern, req.FindAll, opts)
	res := &api.Result{
		Request:    req,
		Order:      st.Order(),
		Visited:    st.Visited(),
		Found:      st.Found(),
		TotalNodes: snap.Len(),
		StartedAt:  searchStart,
		Duration:   time.Since(searchStart),
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	log.Info("search completed",
		zap.Int("found", len(res.Found)),
		zap.Int("visited", len(res.Visited)),
		zap.Int("total", res.TotalNodes),
		zap.Duration("search", res.Duration),
		zap.Duration("total_time", time.Since(started)),
		zap.Error(err))
	events <- Event{Kind: EventDone, Result: res, Err: err}
}

// Search runs req to completion, discarding progress events.
func (s *Session) Search(ctx context.Context, req api.Request) (*api.Result, error) {
	return s.SearchWithProgress(ctx, req, nil)
}

// SearchWithProgress runs req to completion, forwarding progress messages
// to fn on the caller's goroutine.
func (s *Session) SearchWithProgress(ctx context.Context, req api.Request, fn traverse.ProgressFunc) (*api.Result, error) {
	events, err := s.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	var (
		res    *api.Result
		runErr error
	)
	for ev := range events {
		switch ev.Kind {
		case EventProgress:
			if fn != nil {
				fn(ev.Message)
			}
		case EventDone:
			res, runErr = ev.Result, ev.Err
		}
	}
	return res, runErr
}

// Cancel stops the in-flight run, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Running reports whether a run is in flight.
func (s *Session) Running() bool {
	return s.running.Load()
}

// Snapshot returns the snapshot of the latest run for read-only use.
func (s *Session) Snapshot() *graph.Snapshot {
	return s.current.Load()
}

// LastResult returns the result of the most recent finished run.
func (s *Session) LastResult() *api.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
