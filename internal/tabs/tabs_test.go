package tabs

import (
	"context"
	"errors"
	"testing"

	"github.com/noahxzhu/autotab/internal/model"
)

func TestBrowserOpenAndGroup(t *testing.T) {
	ctx := context.Background()
	var opened []string
	b := NewBrowser(func(url string) error {
		opened = append(opened, url)
		return nil
	})

	t1, err := b.OpenURL(ctx, "https://a.example", OpenOptions{Active: true})
	if err != nil {
		t.Fatal(err)
	}
	t2, _ := b.OpenURL(ctx, "https://b.example", OpenOptions{})
	if len(opened) != 2 {
		t.Fatalf("expected 2 urls handed to the opener, got %v", opened)
	}

	g, err := b.GroupTabs(ctx, []TabHandle{t1, t2})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ConfigureGroup(ctx, g, GroupConfig{Title: "Work", Color: model.ColorBlue}); err != nil {
		t.Fatal(err)
	}

	found, ok, err := b.FindGroup(ctx, "Work")
	if err != nil || !ok || found != g {
		t.Fatalf("expected to find group %d, got %d %v %v", g, found, ok, err)
	}
	if _, ok, _ := b.FindGroup(ctx, "Home"); ok {
		t.Error("expected no group named Home")
	}

	t3, _ := b.OpenURL(ctx, "https://c.example", OpenOptions{})
	if err := b.AddToGroup(ctx, g, []TabHandle{t3}); err != nil {
		t.Fatal(err)
	}
	cfg, urls, ok := b.Group(g)
	if !ok || cfg.Color != model.ColorBlue || len(urls) != 3 || urls[2] != "https://c.example" {
		t.Errorf("unexpected group state %+v %v", cfg, urls)
	}
}

func TestBrowserErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("no display")
	b := NewBrowser(func(string) error { return boom })

	if _, err := b.OpenURL(ctx, "https://a.example", OpenOptions{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped opener error, got %v", err)
	}
	if _, err := b.GroupTabs(ctx, nil); err == nil {
		t.Error("expected error grouping no tabs")
	}
	if _, err := b.GroupTabs(ctx, []TabHandle{42}); err == nil {
		t.Error("expected error for unknown tab")
	}
	if err := b.ConfigureGroup(ctx, 7, GroupConfig{}); err == nil {
		t.Error("expected error for unknown group")
	}
}
