package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDailyAt(t *testing.T) {
	tests := []struct {
		name string
		hour int
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			hour: 3,
			now:  time.Date(2025, 3, 10, 1, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 10, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed rolls to tomorrow",
			hour: 0,
			now:  time.Date(2025, 3, 10, 0, 0, 1, 0, time.UTC),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour rolls to tomorrow",
			hour: 0,
			now:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "non utc input",
			hour: 0,
			now:  time.Date(2025, 3, 10, 23, 0, 0, 0, time.FixedZone("CET", 3600)),
			want: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "month end",
			hour: 2,
			now:  time.Date(2025, 2, 28, 5, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DailyAt(tt.hour)(tt.now); !got.Equal(tt.want) {
				t.Errorf("DailyAt(%d)(%s) = %s, want %s", tt.hour, tt.now, got, tt.want)
			}
		})
	}
}

func TestRepeatedTimer_FiresUntilStopped(t *testing.T) {
	var calls atomic.Int32
	fired := make(chan struct{}, 10)
	rt := NewRepeatedTimer(Every(5*time.Millisecond), func() {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("timer did not fire")
		}
	}
	rt.Stop()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("timer fired after Stop: %d -> %d", after, calls.Load())
	}
}

func TestRepeatedTimer_StopIsIdempotent(t *testing.T) {
	rt := NewRepeatedTimer(Every(time.Hour), func() {})
	rt.Stop()
	rt.Stop()
	rt.Start()
	rt.Stop()
}
