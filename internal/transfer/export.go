// Package transfer reads and writes the portable schedule file.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/noahxzhu/autotab/internal/model"
)

const Version = "1.1"

// Document is the export file layout.
type Document struct {
	Version    string           `json:"version"`
	ExportDate string           `json:"exportDate"`
	Groups     []model.Group    `json:"groups"`
	Schedules  []model.Schedule `json:"schedules"`
}

func (d Document) Empty() bool {
	return len(d.Groups) == 0 && len(d.Schedules) == 0
}

type Source interface {
	Groups(ctx context.Context) ([]model.Group, error)
	Schedules(ctx context.Context) ([]model.Schedule, error)
}

func Export(ctx context.Context, src Source, now time.Time) (Document, error) {
	groups, err := src.Groups(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("failed to load groups: %w", err)
	}
	schedules, err := src.Schedules(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("failed to load schedules: %w", err)
	}
	if groups == nil {
		groups = []model.Group{}
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	return Document{
		Version:    Version,
		ExportDate: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Groups:     groups,
		Schedules:  schedules,
	}, nil
}

func Write(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// FileName is the suggested download name for an export taken at now.
func FileName(now time.Time) string {
	return "autotab-schedules-" + now.UTC().Format(model.DateLayout) + ".json"
}
