package notify

import (
	"context"
	"errors"
	"testing"
)

func TestMulti(t *testing.T) {
	var got []Notification
	ok := Func(func(_ context.Context, n Notification) error {
		got = append(got, n)
		return nil
	})
	boom := errors.New("boom")
	bad := Func(func(context.Context, Notification) error { return boom })

	m := Multi{ok, bad, Log{}, ok}
	err := m.Show(context.Background(), Notification{Title: "t", Message: "m"})
	if !errors.Is(err, boom) {
		t.Errorf("expected joined error to contain boom, got %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected delivery to continue past a failing sink, got %d deliveries", len(got))
	}

	if err := (Multi{}).Show(context.Background(), Notification{}); err != nil {
		t.Errorf("expected nil error for empty Multi, got %v", err)
	}
}
