package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akoszegi/paintbot/internal/model"
)

const (
	journalKey = "deliveries:recent"

	// maxJournalLen caps the list so the journal never grows unbounded.
	maxJournalLen = 100
)

type RedisJournal struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisJournal(rdb *redis.Client, ttl time.Duration) *RedisJournal {
	return &RedisJournal{rdb: rdb, ttl: ttl}
}

func (j *RedisJournal) Record(ctx context.Context, rec model.DeliveryRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := j.rdb.TxPipeline()
	pipe.LPush(ctx, journalKey, b)
	pipe.LTrim(ctx, journalKey, 0, maxJournalLen-1)
	pipe.Expire(ctx, journalKey, j.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit records, newest first.
func (j *RedisJournal) Recent(ctx context.Context, limit int) ([]model.DeliveryRecord, error) {
	if limit <= 0 || limit > maxJournalLen {
		limit = maxJournalLen
	}

	raw, err := j.rdb.LRange(ctx, journalKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]model.DeliveryRecord, 0, len(raw))
	for _, item := range raw {
		var rec model.DeliveryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
