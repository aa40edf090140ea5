// Package tabs opens URLs and groups the resulting tabs.
package tabs

import (
	"context"
	"fmt"
	"sync"

	"github.com/noahxzhu/autotab/internal/model"
	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

type TabHandle int

type GroupHandle int

type OpenOptions struct {
	Active   bool
	WindowID int // 0 means the current window
}

type GroupConfig struct {
	Title     string
	Color     model.Color
	Collapsed bool
}

type Opener interface {
	OpenURL(ctx context.Context, url string, opts OpenOptions) (TabHandle, error)
	GroupTabs(ctx context.Context, tabs []TabHandle) (GroupHandle, error)
	ConfigureGroup(ctx context.Context, group GroupHandle, cfg GroupConfig) error
}

// GroupFinder is implemented by openers that can look up an existing tab
// group by title and add tabs to it.
type GroupFinder interface {
	FindGroup(ctx context.Context, title string) (GroupHandle, bool, error)
	AddToGroup(ctx context.Context, group GroupHandle, tabs []TabHandle) error
}

// SystemOpen hands the URL to the operating system's default browser.
func SystemOpen(url string) error {
	return browser.OpenURL(url)
}

// Browser opens URLs through an open function and keeps tab and group
// bookkeeping in memory. The OS browser exposes no tab-group API, so
// groups exist only for the lifetime of the process.
type Browser struct {
	open func(url string) error

	mu      sync.Mutex
	nextTab TabHandle
	nextGrp GroupHandle
	tabs    map[TabHandle]string
	groups  map[GroupHandle]*tabGroup
}

type tabGroup struct {
	cfg  GroupConfig
	tabs []TabHandle
}

func NewBrowser(open func(url string) error) *Browser {
	if open == nil {
		open = SystemOpen
	}
	return &Browser{
		open:   open,
		tabs:   make(map[TabHandle]string),
		groups: make(map[GroupHandle]*tabGroup),
	}
}

func (b *Browser) OpenURL(ctx context.Context, url string, opts OpenOptions) (TabHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := b.open(url); err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", url, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextTab++
	b.tabs[b.nextTab] = url
	log.Debug().Str("url", url).Int("tab", int(b.nextTab)).Bool("active", opts.Active).Msg("Opened tab")
	return b.nextTab, nil
}

func (b *Browser) GroupTabs(ctx context.Context, tabs []TabHandle) (GroupHandle, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(tabs) == 0 {
		return 0, fmt.Errorf("no tabs to group")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range tabs {
		if _, ok := b.tabs[t]; !ok {
			return 0, fmt.Errorf("unknown tab %d", t)
		}
	}
	b.nextGrp++
	b.groups[b.nextGrp] = &tabGroup{tabs: append([]TabHandle(nil), tabs...)}
	return b.nextGrp, nil
}

func (b *Browser) ConfigureGroup(ctx context.Context, group GroupHandle, cfg GroupConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[group]
	if !ok {
		return fmt.Errorf("unknown tab group %d", group)
	}
	g.cfg = cfg
	return nil
}

func (b *Browser) FindGroup(ctx context.Context, title string) (GroupHandle, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var found GroupHandle
	for h, g := range b.groups {
		if g.cfg.Title == title && (found == 0 || h < found) {
			found = h
		}
	}
	return found, found != 0, nil
}

func (b *Browser) AddToGroup(ctx context.Context, group GroupHandle, tabs []TabHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[group]
	if !ok {
		return fmt.Errorf("unknown tab group %d", group)
	}
	g.tabs = append(g.tabs, tabs...)
	return nil
}

// Group returns the configuration and tab URLs of a group.
func (b *Browser) Group(group GroupHandle) (GroupConfig, []string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[group]
	if !ok {
		return GroupConfig{}, nil, false
	}
	urls := make([]string, 0, len(g.tabs))
	for _, t := range g.tabs {
		urls = append(urls, b.tabs[t])
	}
	return g.cfg, urls, true
}
