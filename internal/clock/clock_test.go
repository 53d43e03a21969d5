package clock

import (
	"testing"
	"time"
)

func TestToday(t *testing.T) {
	c := NewFakeClock(time.Date(2026, 3, 9, 23, 15, 0, 0, time.UTC))
	got := Today(c)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	c.Advance(time.Hour)
	if got := Today(c); got.Day() != 10 {
		t.Fatalf("expected day 10 after advance, got %d", got.Day())
	}
}
