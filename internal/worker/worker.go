// Package worker runs the scheduler: on every alarm tick it opens the URLs
// of schedules that are due, records their trigger time and sends one
// summary notification.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/notify"
	"github.com/noahxzhu/autotab/internal/tabs"
	"github.com/noahxzhu/autotab/internal/trigger"
	"github.com/rs/zerolog/log"
)

const (
	AlarmName          = "schedule-checker"
	AlarmPeriodMinutes = 1
	NotificationTitle  = "Auto Tab - Scheduled URLs Opened"
)

type Store interface {
	Schedules(ctx context.Context) ([]model.Schedule, error)
	Groups(ctx context.Context) ([]model.Group, error)
	Settings(ctx context.Context) (model.Settings, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
}

type Alarms interface {
	Get(name string) (alarm.Alarm, bool)
	Create(name string, opts alarm.Options) error
	C() <-chan alarm.Event
}

// Report summarizes one tick.
type Report struct {
	At       time.Time `json:"at"`
	Checked  int       `json:"checked"`
	Fired    []string  `json:"fired"`
	Opened   []string  `json:"opened"`
	Failed   []string  `json:"failed"`
	Unmarked []string  `json:"unmarked"`
	Notified bool      `json:"notified"`
}

type Worker struct {
	store    Store
	tabs     tabs.Opener
	notifier notify.Notifier
	alarms   Alarms

	alarmName string
	alarmOpts alarm.Options
	now       func() time.Time

	tickMu     sync.Mutex
	updateChan chan struct{}
	onTick     func(Report) // Callback after every tick that fired something
}

type Option func(*Worker)

func WithAlarm(name string, opts alarm.Options) Option {
	return func(w *Worker) {
		if name != "" {
			w.alarmName = name
		}
		if opts.PeriodMinutes > 0 {
			w.alarmOpts = opts
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

func NewWorker(store Store, opener tabs.Opener, notifier notify.Notifier, alarms Alarms, opts ...Option) *Worker {
	w := &Worker{
		store:      store,
		tabs:       opener,
		notifier:   notifier,
		alarms:     alarms,
		alarmName:  AlarmName,
		alarmOpts:  alarm.Options{PeriodMinutes: AlarmPeriodMinutes},
		now:        time.Now,
		updateChan: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetOnTick sets a callback that receives the report of every tick that
// fired at least one schedule.
func (w *Worker) SetOnTick(fn func(Report)) {
	w.onTick = fn
}

// Refresh asks the worker to run a check immediately
func (w *Worker) Refresh() {
	select {
	case w.updateChan <- struct{}{}:
	default:
		// Channel already has a pending signal, no need to block
	}
}

// EnsureAlarm creates the periodic alarm unless one with the configured
// name already exists. It reports whether an alarm was created.
func (w *Worker) EnsureAlarm() (bool, error) {
	if _, ok := w.alarms.Get(w.alarmName); ok {
		log.Debug().Str("alarm", w.alarmName).Msg("Schedule alarm already exists")
		return false, nil
	}
	if err := w.alarms.Create(w.alarmName, w.alarmOpts); err != nil {
		return false, fmt.Errorf("failed to create alarm %s: %w", w.alarmName, err)
	}
	log.Info().Str("alarm", w.alarmName).Int("period_minutes", w.alarmOpts.PeriodMinutes).Msg("Created schedule alarm")
	return true, nil
}

// Alarm describes the worker's alarm, if registered.
func (w *Worker) Alarm() (alarm.Alarm, bool) {
	return w.alarms.Get(w.alarmName)
}

func (w *Worker) Start(ctx context.Context) error {
	if _, err := w.EnsureAlarm(); err != nil {
		return err
	}
	log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Worker stopped")
			return nil
		case ev := <-w.alarms.C():
			if ev.Name != w.alarmName {
				continue
			}
			w.run(ctx)
		case <-w.updateChan:
			log.Debug().Msg("Worker received update signal. Checking...")
			w.run(ctx)
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	if _, err := w.Check(ctx); err != nil {
		log.Error().Err(err).Msg("Schedule check failed")
	}
}

// Check runs one tick at the current time.
func (w *Worker) Check(ctx context.Context) (Report, error) {
	return w.Tick(ctx, w.now())
}

// Tick evaluates every schedule at now and fires the due ones. Only a
// failure to load schedules aborts the tick; every other failure is logged
// and recorded in the report.
func (w *Worker) Tick(ctx context.Context, now time.Time) (Report, error) {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()

	report := Report{At: now}
	schedules, err := w.store.Schedules(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load schedules: %w", err)
	}
	report.Checked = len(schedules)
	if len(schedules) == 0 {
		log.Debug().Msg("No schedules configured")
		return report, nil
	}

	var due []model.Schedule
	for _, s := range schedules {
		if trigger.ShouldTrigger(s, now) {
			due = append(due, s)
			report.Fired = append(report.Fired, s.ID)
		}
	}
	if len(due) == 0 {
		log.Debug().Time("at", now).Msg("No schedules to trigger at this time")
		return report, nil
	}
	log.Info().Int("count", len(due)).Msg("Triggering schedules")

	// Once tabs start opening the tick runs to completion, so shutdown
	// cannot leave opened schedules without lastTriggered.
	ctx = context.WithoutCancel(ctx)

	w.openTabs(ctx, due, &report)

	for _, s := range due {
		if err := w.store.MarkTriggered(ctx, s.ID, now); err != nil {
			log.Error().Err(err).Str("id", s.ID).Msg("Failed to record trigger time")
			report.Unmarked = append(report.Unmarked, s.ID)
		}
	}

	settings, err := w.store.Settings(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load settings, using defaults")
		settings = model.DefaultSettings()
	}
	if settings.Notifications {
		if err := w.notifier.Show(ctx, summary(report)); err != nil {
			log.Error().Err(err).Msg("Failed to show notification")
		} else {
			report.Notified = true
		}
	}

	if w.onTick != nil {
		w.onTick(report)
	}
	return report, nil
}

func summary(r Report) notify.Notification {
	msg := fmt.Sprintf("Opened %d scheduled URLs", len(r.Opened))
	if len(r.Opened) == 1 {
		msg = "Opened: " + r.Opened[0]
	}
	if len(r.Failed) > 0 {
		msg += fmt.Sprintf(" (%d failed)", len(r.Failed))
	}
	return notify.Notification{Title: NotificationTitle, Message: msg}
}
