// Package ratelimiter provides a fixed-window limiter for outbound calls.
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter は操作の頻度を制限するインターフェースです。
type Limiter interface {
	Wait(ctx context.Context) error
}

// RateLimiter allows at most limit operations per interval.
// Callers over the limit block until the window resets or ctx is done.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // intervalあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time

	now func() time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。
// limit <= 0 disables limiting.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// reserve counts one call and returns how long the caller must wait before proceeding.
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		// 予約済みの未来のウィンドウに入った場合はその開始まで待つ
		if wait := rl.lastReset.Sub(now); wait > 0 {
			return wait
		}
		return 0
	}

	// 次のウィンドウの枠を予約する
	wait := rl.interval - now.Sub(rl.lastReset)
	rl.count = 1
	rl.lastReset = rl.lastReset.Add(rl.interval)
	return wait
}

// Wait blocks until the call fits into the current window.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.limit <= 0 {
		return nil
	}

	wait := rl.reserve()
	if wait <= 0 {
		return nil
	}

	slog.Info("rate limit reached, waiting", "limit", rl.limit, "wait", wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
