package cli

import (
	"fmt"
	"os"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/noahxzhu/autotab/internal/config"
	"github.com/noahxzhu/autotab/internal/logging"
	"github.com/noahxzhu/autotab/internal/notify"
	"github.com/noahxzhu/autotab/internal/pushover"
	"github.com/noahxzhu/autotab/internal/storage"
	"github.com/noahxzhu/autotab/internal/store"
	"github.com/noahxzhu/autotab/internal/tabs"
	"github.com/noahxzhu/autotab/internal/worker"
	"github.com/rs/zerolog/log"
)

// app holds what every command needs: configuration and an open store.
type app struct {
	loader *config.Loader
	cfg    *config.Config
	kv     storage.KV
	store  *store.Store
}

func (o *options) open() (*app, error) {
	loader, err := config.NewLoader(o.cfgFile)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logging.Setup(logging.Config{Level: level, Format: cfg.Log.Format}, os.Stderr)
	if f := loader.File(); f != "" {
		log.Debug().Str("file", f).Msg("Loaded config")
	}

	kv, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: cfg.Storage.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &app{loader: loader, cfg: cfg, kv: kv, store: store.New(kv)}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func (a *app) opener() *tabs.Browser {
	if a.cfg.Browser.Enabled {
		return tabs.NewBrowser(tabs.SystemOpen)
	}
	return tabs.NewBrowser(func(url string) error {
		log.Info().Str("url", url).Msg("Browser disabled, not opening")
		return nil
	})
}

func (a *app) notifier() notify.Notifier {
	sinks := notify.Multi{notify.Log{}}
	if p := a.cfg.Pushover; p.Enabled() {
		sinks = append(sinks, pushover.NewClient(p.Token, p.User, pushover.Options{
			RetryMax:      p.RetryMax,
			RatePerMinute: p.RatePerMinute,
		}))
	}
	return sinks
}

func (a *app) worker(alarms *alarm.Service) *worker.Worker {
	return worker.NewWorker(a.store, a.opener(), a.notifier(), alarms,
		worker.WithAlarm(a.cfg.Alarm.Name, alarm.Options{
			PeriodMinutes:       a.cfg.Alarm.PeriodMinutes,
			InitialDelayMinutes: a.cfg.Alarm.InitialDelayMinutes,
		}),
	)
}
