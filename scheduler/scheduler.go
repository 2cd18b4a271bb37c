package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks. The context is
// cancelled when the scheduler stops.
type TaskFn func(ctx context.Context) error

// TaskStatus is the last known outcome of a task.
type TaskStatus struct {
	Name       string        `json:"name"`
	Interval   time.Duration `json:"interval,omitempty"`
	Runs       int           `json:"runs"`
	Running    bool          `json:"running"`
	LastRun    *time.Time    `json:"last_run,omitempty"`
	LastTook   time.Duration `json:"last_took"`
	LastError  string        `json:"last_error,omitempty"`
	registered time.Time
}

// Scheduler manages periodic and delayed tasks, such as cache warm-up and
// search index rebuilds.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	timers  map[string]*time.Timer
	status  map[string]*TaskStatus
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type tickerEntry struct {
	ticker *time.Ticker
	stopCh chan struct{}
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		timers:  make(map[string]*time.Timer),
		status:  make(map[string]*TaskStatus),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	entry := &tickerEntry{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	s.tickers[name] = entry
	s.track(name, interval)

	go func() {
		for {
			select {
			case <-entry.ticker.C:
				s.run(name, fn)
			case <-entry.stopCh:
				entry.ticker.Stop()
				return
			case <-s.ctx.Done():
				entry.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after the given delay.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[name]; ok {
		old.Stop()
	}
	s.track(name, 0)
	s.timers[name] = time.AfterFunc(delay, func() {
		defer func() {
			s.mu.Lock()
			delete(s.timers, name)
			s.mu.Unlock()
		}()
		if s.ctx.Err() != nil {
			return
		}
		s.run(name, fn)
	})
}

// track must be called with s.mu held.
func (s *Scheduler) track(name string, interval time.Duration) {
	st, ok := s.status[name]
	if !ok {
		st = &TaskStatus{Name: name, registered: time.Now()}
		s.status[name] = st
	}
	st.Interval = interval
}

// run executes fn, recovering a panic, and records the outcome.
func (s *Scheduler) run(name string, fn TaskFn) {
	s.mu.Lock()
	st := s.status[name]
	if st == nil {
		st = &TaskStatus{Name: name, registered: time.Now()}
		s.status[name] = st
	}
	st.Running = true
	s.mu.Unlock()

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("scheduler task panicked",
					zap.String("task", name),
					zap.Any("recover", r))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(s.ctx)
	}()
	took := time.Since(start)
	if err != nil {
		s.logger.Warn("scheduler task failed", zap.String("task", name), zap.Error(err))
	}

	s.mu.Lock()
	st.Running = false
	st.Runs++
	st.LastRun = &start
	st.LastTook = took
	st.LastError = ""
	if err != nil {
		st.LastError = err.Error()
	}
	s.mu.Unlock()
}

// RunNow runs a task synchronously outside its schedule.
func (s *Scheduler) RunNow(name string, fn TaskFn) {
	s.mu.Lock()
	s.track(name, s.intervalLocked(name))
	s.mu.Unlock()
	s.run(name, fn)
}

func (s *Scheduler) intervalLocked(name string) time.Duration {
	if st, ok := s.status[name]; ok {
		return st.Interval
	}
	return 0
}

// Remove stops and removes a ticker or delay task by name. It reports
// whether the task was known.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.status[name]
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
	delete(s.status, name)
	return known
}

// Stop stops all tasks and cancels the context of running ones.
func (s *Scheduler) Stop() {
	s.cancel()
}

// ListTickers returns the names of all registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tasks returns the status of every known task in registration order.
func (s *Scheduler) Tasks() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskStatus, 0, len(s.status))
	for _, st := range s.status {
		cp := *st
		if st.LastRun != nil {
			t := *st.LastRun
			cp.LastRun = &t
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].registered.Equal(out[j].registered) {
			return out[i].registered.Before(out[j].registered)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
