// Package notify delivers user-facing notifications.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type Notifier interface {
	Show(ctx context.Context, n Notification) error
}

// Log writes notifications to the global logger.
type Log struct{}

func (Log) Show(_ context.Context, n Notification) error {
	log.Info().Str("title", n.Title).Msg(n.Message)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Show(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Show(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification) error

func (f Func) Show(ctx context.Context, n Notification) error { return f(ctx, n) }
