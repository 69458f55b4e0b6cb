package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitLock serializes submissions per video across gateway processes.
// The claim is a best-effort guard against the check-then-act race between
// two concurrent submissions for the same new video; the database's
// partial unique index is the hard backstop. Claims expire after ttl so a
// crashed pipeline cannot block a video forever; the status worker
// releases them on terminal events.
type SubmitLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSubmitLock(rdb *redis.Client, ttl time.Duration) *SubmitLock {
	return &SubmitLock{rdb: rdb, ttl: ttl}
}

func claimKey(videoID string) string {
	return "vidsage:claim:" + videoID
}

// Claim tries to take the submission claim for a video. It returns false
// when another job already holds it.
func (l *SubmitLock) Claim(ctx context.Context, videoID, jobID string) (bool, error) {
	return l.rdb.SetNX(ctx, claimKey(videoID), jobID, l.ttl).Result()
}

// Release drops the claim. Safe to call when no claim exists.
func (l *SubmitLock) Release(ctx context.Context, videoID string) error {
	return l.rdb.Del(ctx, claimKey(videoID)).Err()
}
