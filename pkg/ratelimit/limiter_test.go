package ratelimit

import (
	"errors"
	"testing"
	"time"

	cerrors "github.com/matzehuels/curator/pkg/errors"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestCheckRefusesAtMinuteCeiling(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 10, PerHour: 60}, WithClock(clock.Now), WithName("github"))

	for i := range 10 {
		if err := l.Check(); err != nil {
			t.Fatalf("call %d: unexpected refusal: %v", i+1, err)
		}
		clock.Advance(time.Second)
	}

	err := l.Check()
	var rl *cerrors.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("call 11: err = %v, want RateLimitError", err)
	}
	if rl.RetryAfter <= 0 || rl.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 1m]", rl.RetryAfter)
	}
	// First call was at t0; now is t0+10s, so it leaves the window in 50s.
	if rl.RetryAfter != 50*time.Second {
		t.Errorf("RetryAfter = %v, want 50s", rl.RetryAfter)
	}
	if rl.Source != "github" {
		t.Errorf("Source = %q, want github", rl.Source)
	}
}

func TestCheckRecoversAfterWindow(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 2}, WithClock(clock.Now))

	_ = l.Check()
	_ = l.Check()
	if err := l.Check(); err == nil {
		t.Fatal("third call should be refused")
	}

	clock.Advance(time.Minute + time.Millisecond)
	if err := l.Check(); err != nil {
		t.Errorf("after window: %v", err)
	}
}

func TestCheckHourCeiling(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 100, PerHour: 3}, WithClock(clock.Now))

	for range 3 {
		if err := l.Check(); err != nil {
			t.Fatal(err)
		}
		clock.Advance(2 * time.Minute)
	}

	err := l.Check()
	var rl *cerrors.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if rl.RetryAfter != 54*time.Minute {
		t.Errorf("RetryAfter = %v, want 54m", rl.RetryAfter)
	}
}

func TestCheckMinuteBeforeHour(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 1, PerHour: 1}, WithClock(clock.Now))
	_ = l.Check()

	err := l.Check()
	var rl *cerrors.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v", err)
	}
	if rl.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want minute-window hint 1m", rl.RetryAfter)
	}
}

func TestCheckRecordsBothWindows(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 5}, WithClock(clock.Now))
	_ = l.Check()
	_ = l.Check()

	s := l.Stats()
	if s.LastMinute != 2 || s.LastHour != 2 {
		t.Errorf("Stats = %+v, want 2/2", s)
	}

	clock.Advance(90 * time.Second)
	s = l.Stats()
	if s.LastMinute != 0 || s.LastHour != 2 {
		t.Errorf("Stats after 90s = %+v, want 0/2", s)
	}
}

func TestCheckMinInterval(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 10, MinInterval: 3 * time.Second}, WithClock(clock.Now))

	if err := l.Check(); err != nil {
		t.Fatal(err)
	}
	clock.Advance(time.Second)

	err := l.Check()
	var rl *cerrors.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if d := rl.RetryAfter - 2*time.Second; d < -10*time.Millisecond || d > 10*time.Millisecond {
		t.Errorf("RetryAfter = %v, want ~2s", rl.RetryAfter)
	}

	clock.Advance(2*time.Second + 50*time.Millisecond)
	if err := l.Check(); err != nil {
		t.Errorf("after spacing: %v", err)
	}
	if got := l.Stats().Refused; got != 1 {
		t.Errorf("Refused = %d, want 1", got)
	}
}

func TestCheckMinIntervalStaggersRefusals(t *testing.T) {
	clock := newClock()
	l := New(Limits{PerMinute: 10, MinInterval: 3 * time.Second}, WithClock(clock.Now))

	if err := l.Check(); err != nil {
		t.Fatal(err)
	}
	var waits []time.Duration
	for range 4 {
		var rl *cerrors.RateLimitError
		if err := l.Check(); !errors.As(err, &rl) {
			t.Fatalf("err = %v, want RateLimitError", err)
		}
		waits = append(waits, rl.RetryAfter)
	}
	for i, w := range waits {
		want := time.Duration(i+1) * 3 * time.Second
		if d := w - want; d < -10*time.Millisecond || d > 10*time.Millisecond {
			t.Errorf("waits[%d] = %v, want ~%v", i, w, want)
		}
	}

	// Each refused caller comes back at its own slot and is admitted.
	for i := range 4 {
		clock.Advance(3 * time.Second)
		if err := l.Check(); err != nil {
			t.Errorf("caller %d at its slot: %v", i, err)
		}
	}
}

func TestCheckDropsStaleSlots(t *testing.T) {
	clock := newClock()
	l := New(Limits{MinInterval: time.Second}, WithClock(clock.Now))

	_ = l.Check()
	if err := l.Check(); err == nil {
		t.Fatal("second Check() = nil, want refusal")
	}
	clock.Advance(10 * time.Second)
	if err := l.Check(); err != nil {
		t.Fatalf("Check() after idle = %v", err)
	}
	if err := l.Check(); err == nil {
		t.Error("stale slot was reused")
	}
}

func TestUnlimited(t *testing.T) {
	l := New(Limits{})
	for range 1000 {
		if err := l.Check(); err != nil {
			t.Fatal(err)
		}
	}
	if !l.Limits().Unlimited() {
		t.Error("Unlimited() = false")
	}
}
