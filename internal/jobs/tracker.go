package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openshelf/reportgen/internal/config"
	"github.com/openshelf/reportgen/internal/domain"
)

const (
	jobKeyPrefix  = "report:job"
	scanBatchSize = 100
	defaultJobTTL = 24 * time.Hour
)

// Tracker records the poll-visible state of report jobs. The engine itself
// never writes failure state; the caller that owns the run does, through
// this interface.
type Tracker interface {
	Create(ctx context.Context, rec *domain.JobRecord) error
	SetProgress(ctx context.Context, jobID string, percent float64, step string) error
	SetResult(ctx context.Context, jobID string, manifest *domain.Manifest) error
	SetError(ctx context.Context, jobID string, category, message string) error
	Get(ctx context.Context, jobID string) (*domain.JobRecord, bool, error)
}

type redisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

type noopTracker struct{}

// NewTracker returns a Redis-backed tracker, or a no-op tracker when the
// cache is disabled.
func NewTracker(cfg config.CacheConfig) (Tracker, error) {
	if !cfg.Enabled {
		return &noopTracker{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisTracker{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewNoopTracker returns a tracker that records nothing.
func NewNoopTracker() Tracker {
	return &noopTracker{}
}

func (t *redisTracker) Create(ctx context.Context, rec *domain.JobRecord) error {
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = domain.JobQueued
	}
	return t.save(ctx, rec)
}

func (t *redisTracker) SetProgress(ctx context.Context, jobID string, percent float64, step string) error {
	return t.update(ctx, jobID, func(rec *domain.JobRecord) {
		rec.Status = domain.JobRunning
		rec.Percent = percent
		rec.Step = step
	})
}

func (t *redisTracker) SetResult(ctx context.Context, jobID string, manifest *domain.Manifest) error {
	return t.update(ctx, jobID, func(rec *domain.JobRecord) {
		now := time.Now()
		rec.Status = domain.JobCompleted
		rec.Percent = 100
		rec.Manifest = manifest
		rec.DoneAt = &now
	})
}

func (t *redisTracker) SetError(ctx context.Context, jobID, category, message string) error {
	return t.update(ctx, jobID, func(rec *domain.JobRecord) {
		now := time.Now()
		rec.Status = domain.JobFailed
		rec.Error = fmt.Sprintf("%s: %s", category, message)
		rec.DoneAt = &now
	})
}

func (t *redisTracker) Get(ctx context.Context, jobID string) (*domain.JobRecord, bool, error) {
	payload, err := t.client.Get(ctx, buildJobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var rec domain.JobRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, false, fmt.Errorf("decode job record: %w", err)
	}
	return &rec, true, nil
}

func (t *redisTracker) update(ctx context.Context, jobID string, mutate func(*domain.JobRecord)) error {
	rec, found, err := t.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("job %s not found", jobID)
	}

	mutate(rec)
	rec.UpdatedAt = time.Now()
	return t.save(ctx, rec)
}

func (t *redisTracker) save(ctx context.Context, rec *domain.JobRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode job record: %w", err)
	}
	if err := t.client.Set(ctx, buildJobKey(rec.JobID), payload, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (n *noopTracker) Create(ctx context.Context, rec *domain.JobRecord) error {
	return nil
}

func (n *noopTracker) SetProgress(ctx context.Context, jobID string, percent float64, step string) error {
	return nil
}

func (n *noopTracker) SetResult(ctx context.Context, jobID string, manifest *domain.Manifest) error {
	return nil
}

func (n *noopTracker) SetError(ctx context.Context, jobID, category, message string) error {
	return nil
}

func (n *noopTracker) Get(ctx context.Context, jobID string) (*domain.JobRecord, bool, error) {
	return nil, false, nil
}

func buildJobKey(jobID string) string {
	return fmt.Sprintf("%s:%s", jobKeyPrefix, jobID)
}
