// Package alarm is a named periodic timer service. Each alarm fires an
// Event on a shared channel every period; events that arrive while the
// previous one is still unconsumed are dropped.
package alarm

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type Options struct {
	PeriodMinutes       int
	InitialDelayMinutes int
}

type Alarm struct {
	Name          string    `json:"name"`
	PeriodMinutes int       `json:"periodMinutes"`
	ScheduledTime time.Time `json:"scheduledTime"`
}

type Event struct {
	Name    string
	FiredAt time.Time
}

type registration struct {
	id   cron.EntryID
	opts Options
}

type Service struct {
	mu      sync.Mutex
	c       *cron.Cron
	entries map[string]registration
	events  chan Event
}

func NewService() *Service {
	logger := cronLogger{}
	return &Service{
		c: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		entries: make(map[string]registration),
		events:  make(chan Event, 1),
	}
}

func (s *Service) Start() { s.c.Start() }

// Stop halts the timer and returns a context that is done once running
// jobs have finished.
func (s *Service) Stop() context.Context { return s.c.Stop() }

func (s *Service) C() <-chan Event { return s.events }

// Create registers name, replacing any alarm already registered under it.
func (s *Service) Create(name string, opts Options) error {
	if name == "" {
		return fmt.Errorf("alarm name is required")
	}
	if opts.PeriodMinutes < 1 {
		return fmt.Errorf("alarm %s: period must be at least one minute, got %d", name, opts.PeriodMinutes)
	}
	if opts.InitialDelayMinutes < 0 {
		opts.InitialDelayMinutes = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[name]; ok {
		s.c.Remove(old.id)
	}
	period := time.Duration(opts.PeriodMinutes) * time.Minute
	sched := &delaySchedule{
		base:  cron.Every(period),
		first: time.Now().Add(time.Duration(opts.InitialDelayMinutes) * time.Minute),
	}
	id := s.c.Schedule(sched, cron.FuncJob(func() { s.fire(name) }))
	s.entries[name] = registration{id: id, opts: opts}

	log.Debug().Str("alarm", name).Int("period_minutes", opts.PeriodMinutes).Int("delay_minutes", opts.InitialDelayMinutes).Msg("Alarm created")
	return nil
}

func (s *Service) Get(name string) (Alarm, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.entries[name]
	if !ok {
		return Alarm{}, false
	}
	return s.describe(name, reg), true
}

func (s *Service) All() []Alarm {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Alarm, 0, len(s.entries))
	for name, reg := range s.entries {
		out = append(out, s.describe(name, reg))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Clear removes name and reports whether it existed.
func (s *Service) Clear(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.entries[name]
	if !ok {
		return false
	}
	s.c.Remove(reg.id)
	delete(s.entries, name)
	return true
}

func (s *Service) describe(name string, reg registration) Alarm {
	return Alarm{
		Name:          name,
		PeriodMinutes: reg.opts.PeriodMinutes,
		ScheduledTime: s.c.Entry(reg.id).Next,
	}
}

func (s *Service) fire(name string) {
	ev := Event{Name: name, FiredAt: time.Now()}
	select {
	case s.events <- ev:
	default:
		log.Debug().Str("alarm", name).Msg("Previous alarm event still pending, dropping")
	}
}

// delaySchedule fires once at first, then follows base.
type delaySchedule struct {
	base  cron.Schedule
	first time.Time
	used  atomic.Bool
}

func (d *delaySchedule) Next(t time.Time) time.Time {
	if d.used.CompareAndSwap(false, true) {
		return d.first
	}
	return d.base.Next(t)
}

// cronLogger routes cron's own logging to the global zerolog logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Trace().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
