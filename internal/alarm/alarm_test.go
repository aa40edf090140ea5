package alarm

import (
	"testing"
	"time"
)

func TestCreateGetClear(t *testing.T) {
	s := NewService()

	if _, ok := s.Get("checker"); ok {
		t.Fatal("expected no alarm before Create")
	}
	if err := s.Create("checker", Options{PeriodMinutes: 1, InitialDelayMinutes: 5}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	a, ok := s.Get("checker")
	if !ok {
		t.Fatal("expected alarm after Create")
	}
	if a.Name != "checker" || a.PeriodMinutes != 1 {
		t.Errorf("unexpected alarm %+v", a)
	}

	// Creating again replaces the registration.
	if err := s.Create("checker", Options{PeriodMinutes: 2}); err != nil {
		t.Fatal(err)
	}
	all := s.All()
	if len(all) != 1 || all[0].PeriodMinutes != 2 {
		t.Errorf("expected one alarm with period 2, got %+v", all)
	}

	if !s.Clear("checker") {
		t.Error("expected Clear to report an existing alarm")
	}
	if s.Clear("checker") {
		t.Error("expected second Clear to report nothing removed")
	}
}

func TestCreateRejectsBadOptions(t *testing.T) {
	s := NewService()
	if err := s.Create("", Options{PeriodMinutes: 1}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := s.Create("x", Options{PeriodMinutes: 0}); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestZeroDelayFiresImmediately(t *testing.T) {
	s := NewService()
	if err := s.Create("checker", Options{PeriodMinutes: 1}); err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop()

	select {
	case ev := <-s.C():
		if ev.Name != "checker" {
			t.Errorf("expected event for checker, got %s", ev.Name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected an immediate event")
	}

	a, _ := s.Get("checker")
	if until := time.Until(a.ScheduledTime); until < 50*time.Second || until > 61*time.Second {
		t.Errorf("expected next run about a minute out, got %v", until)
	}
}

func TestDelaySchedule(t *testing.T) {
	now := time.Date(2024, 6, 4, 9, 0, 0, 0, time.UTC)
	first := now.Add(3 * time.Minute)
	d := &delaySchedule{base: everyMinute{}, first: first}

	if got := d.Next(now); !got.Equal(first) {
		t.Errorf("expected first run %v, got %v", first, got)
	}
	if got := d.Next(first); !got.Equal(first.Add(time.Minute)) {
		t.Errorf("expected base schedule after first run, got %v", got)
	}
}

type everyMinute struct{}

func (everyMinute) Next(t time.Time) time.Time { return t.Add(time.Minute) }
