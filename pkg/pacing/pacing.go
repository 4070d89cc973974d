// Package pacing enforces a minimum interval between requests to a source.
//
// Each source gets its own [Limiter], shared by every fetch for that source
// within a run. The last request time is persisted to a small state file
// next to the source's record store, so pacing carries over across process
// restarts. The read-sleep-write sequence is not atomic: a limiter is safe
// for a single ordered sequence of requests, not for concurrent processes.
package pacing

import (
	"context"
	"encoding/json"
	"os"
	"time"
)

// stateFileName holds the persisted last request time inside a source's
// cache directory.
const stateFileName = ".last_request"

type limiterState struct {
	LastRequestAt time.Time `json:"last_request_time"`
}

// Limiter spaces out requests so that no two throttled calls complete less
// than 1/rate apart. The zero rate (or a negative one) disables pacing.
type Limiter struct {
	interval  time.Duration
	statePath string
	last      time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter for the given request rate. If stateDir is
// non-empty, the last request time is persisted there so pacing survives
// restarts; otherwise pacing is tracked in memory only.
func NewLimiter(requestsPerSecond float64, stateDir string) *Limiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	l := &Limiter{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
	if stateDir != "" {
		l.statePath = stateDir + string(os.PathSeparator) + stateFileName
	}
	return l
}

// Throttle blocks until enough time has passed since the previous throttled
// call for this source, then records the current time as the new last
// request time. It returns early with ctx.Err() if the context is cancelled
// while waiting.
func (l *Limiter) Throttle(ctx context.Context) error {
	if l.interval <= 0 {
		return nil
	}

	last := l.last
	if persisted, ok := l.loadState(); ok && persisted.After(last) {
		last = persisted
	}

	if wait := l.interval - l.now().Sub(last); wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}

	l.last = l.now()
	l.saveState(l.last)
	return nil
}

// Interval returns the minimum spacing between requests.
func (l *Limiter) Interval() time.Duration { return l.interval }

func (l *Limiter) loadState() (time.Time, bool) {
	if l.statePath == "" {
		return time.Time{}, false
	}
	data, err := os.ReadFile(l.statePath)
	if err != nil {
		return time.Time{}, false
	}
	var st limiterState
	if err := json.Unmarshal(data, &st); err != nil {
		return time.Time{}, false
	}
	return st.LastRequestAt, true
}

func (l *Limiter) saveState(at time.Time) {
	if l.statePath == "" {
		return
	}
	data, err := json.Marshal(limiterState{LastRequestAt: at})
	if err != nil {
		return
	}
	// State is advisory; a failed write (e.g. cache dir not created yet)
	// just means pacing falls back to in-memory tracking.
	_ = os.WriteFile(l.statePath, data, 0o644)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
