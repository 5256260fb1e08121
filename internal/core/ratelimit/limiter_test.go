package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestMinuteWindow_Allow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewMinuteWindow(func() time.Time { return now })

	t.Run("admits up to the ceiling then denies", func(t *testing.T) {
		for i := 0; i < 30; i++ {
			if !limiter.Allow("CHAN-001:respond", 30) {
				t.Fatalf("call %d denied, want allowed", i+1)
			}
		}
		if limiter.Allow("CHAN-001:respond", 30) {
			t.Error("call 31 allowed, want denied")
		}
	})

	t.Run("window roll resets the counter", func(t *testing.T) {
		now = now.Add(time.Minute)
		if !limiter.Allow("CHAN-001:respond", 30) {
			t.Error("first call after window roll denied, want allowed")
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		if !limiter.Allow("CHAN-002:respond", 1) {
			t.Error("fresh key denied, want allowed")
		}
		if limiter.Allow("CHAN-002:respond", 1) {
			t.Error("second call on limit-1 key allowed, want denied")
		}
		if !limiter.Allow("CHAN-002:delete", 1) {
			t.Error("different action key denied, want allowed")
		}
	})
}

func TestMinuteWindow_ZeroLimit(t *testing.T) {
	limiter := NewMinuteWindow(nil)
	if limiter.Allow("CHAN-001:respond", 0) {
		t.Error("zero limit allowed, want denied")
	}
}

func TestMinuteWindow_Concurrent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewMinuteWindow(func() time.Time { return now })

	const workers = 10
	const callsPerWorker = 20

	var wg sync.WaitGroup
	allowed := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < callsPerWorker; i++ {
				if limiter.Allow("shared", 50) {
					allowed[w]++
				}
			}
		}(w)
	}
	wg.Wait()

	total := 0
	for _, n := range allowed {
		total += n
	}
	if total != 50 {
		t.Errorf("total allowed = %d, want exactly 50", total)
	}
}
