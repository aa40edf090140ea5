package worker

import (
	"context"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/tabs"
	"github.com/rs/zerolog/log"
)

type batch struct {
	groupID   string
	schedules []model.Schedule
}

// openTabs opens the due URLs. Schedules sharing a group open together and
// are placed in one tab group titled with the group's name; those whose
// group no longer exists open ungrouped after the grouped ones. The first
// tab opened becomes active.
func (w *Worker) openTabs(ctx context.Context, due []model.Schedule, report *Report) {
	var batches []*batch
	index := map[string]*batch{}
	var ungrouped []model.Schedule
	for _, s := range due {
		id := s.Group()
		if id == "" {
			ungrouped = append(ungrouped, s)
			continue
		}
		b, ok := index[id]
		if !ok {
			b = &batch{groupID: id}
			index[id] = b
			batches = append(batches, b)
		}
		b.schedules = append(b.schedules, s)
	}

	groups := map[string]model.Group{}
	if len(batches) > 0 {
		list, err := w.store.Groups(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load groups, opening tabs ungrouped")
		}
		for _, g := range list {
			groups[g.ID] = g
		}
	}

	first := true
	open := func(s model.Schedule) (tabs.TabHandle, bool) {
		tab, err := w.tabs.OpenURL(ctx, s.URL, tabs.OpenOptions{Active: first})
		if err != nil {
			log.Error().Err(err).Str("url", s.URL).Msg("Failed to open tab")
			report.Failed = append(report.Failed, s.URL)
			return 0, false
		}
		first = false
		report.Opened = append(report.Opened, s.URL)
		return tab, true
	}

	for _, b := range batches {
		group, ok := groups[b.groupID]
		if !ok {
			log.Warn().Str("group", b.groupID).Msg("Group not found, opening tabs ungrouped")
			ungrouped = append(ungrouped, b.schedules...)
			continue
		}

		var handles []tabs.TabHandle
		for _, s := range b.schedules {
			if tab, ok := open(s); ok {
				handles = append(handles, tab)
			}
		}
		if len(handles) > 0 {
			if err := w.group(ctx, group, handles); err != nil {
				log.Error().Err(err).Str("group", group.Name).Msg("Failed to group tabs")
			}
		}
	}

	for _, s := range ungrouped {
		open(s)
	}
}

func (w *Worker) group(ctx context.Context, group model.Group, handles []tabs.TabHandle) error {
	if finder, ok := w.tabs.(tabs.GroupFinder); ok {
		existing, found, err := finder.FindGroup(ctx, group.Name)
		if err != nil {
			return err
		}
		if found {
			log.Debug().Str("group", group.Name).Int("tabs", len(handles)).Msg("Adding tabs to existing group")
			return finder.AddToGroup(ctx, existing, handles)
		}
	}

	handle, err := w.tabs.GroupTabs(ctx, handles)
	if err != nil {
		return err
	}
	log.Debug().Str("group", group.Name).Int("tabs", len(handles)).Msg("Created tab group")
	return w.tabs.ConfigureGroup(ctx, handle, tabs.GroupConfig{Title: group.Name, Color: group.Color})
}
