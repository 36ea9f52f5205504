package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/akoszegi/paintbot/internal/model"
)

func newTestJournal(t *testing.T, ttl time.Duration) (*RedisJournal, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisJournal(rdb, ttl), mr
}

func TestRedisJournal_Record_Success(t *testing.T) {
	t.Parallel()

	journal, mr := newTestJournal(t, 10*time.Second)
	ctx := context.Background()

	rec := model.DeliveryRecord{
		ChatID:      42,
		Sender:      "Ada",
		Prompt:      "a red fox",
		Outcome:     model.OutcomeImage,
		DeliveredAt: time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC),
	}

	if err := journal.Record(ctx, rec); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	if !mr.Exists(journalKey) {
		t.Fatalf("expected key %q to exist", journalKey)
	}

	ttlRemaining := mr.TTL(journalKey)
	if ttlRemaining <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttlRemaining)
	}

	items, err := mr.List(journalKey)
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(items))
	}

	var got model.DeliveryRecord
	if err := json.Unmarshal([]byte(items[0]), &got); err != nil {
		t.Fatalf("failed to unmarshal entry: %v", err)
	}

	if got.ChatID != rec.ChatID || got.Sender != rec.Sender || got.Prompt != rec.Prompt {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.Outcome != model.OutcomeImage {
		t.Fatalf("expected outcome %q, got %q", model.OutcomeImage, got.Outcome)
	}
	if !got.DeliveredAt.Equal(rec.DeliveredAt) {
		t.Fatalf("expected DeliveredAt %v, got %v", rec.DeliveredAt, got.DeliveredAt)
	}
}

func TestRedisJournal_Recent_NewestFirst(t *testing.T) {
	t.Parallel()

	journal, _ := newTestJournal(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := model.DeliveryRecord{
			ChatID:      int64(i),
			Prompt:      fmt.Sprintf("prompt-%d", i),
			Outcome:     model.OutcomeImage,
			DeliveredAt: time.Now().UTC(),
		}
		if err := journal.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	recs, err := journal.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}

	if len(recs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recs))
	}
	if recs[0].Prompt != "prompt-2" || recs[2].Prompt != "prompt-0" {
		t.Fatalf("expected newest first, got %+v", recs)
	}
}

func TestRedisJournal_Recent_LimitApplied(t *testing.T) {
	t.Parallel()

	journal, _ := newTestJournal(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := model.DeliveryRecord{ChatID: int64(i), Outcome: model.OutcomeQuota, DeliveredAt: time.Now().UTC()}
		if err := journal.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	recs, err := journal.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recs))
	}
}

func TestRedisJournal_Record_TrimsToCap(t *testing.T) {
	t.Parallel()

	journal, mr := newTestJournal(t, time.Minute)
	ctx := context.Background()

	for i := 0; i < maxJournalLen+10; i++ {
		rec := model.DeliveryRecord{ChatID: int64(i), Outcome: model.OutcomeFailure, DeliveredAt: time.Now().UTC()}
		if err := journal.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	items, err := mr.List(journalKey)
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(items) != maxJournalLen {
		t.Fatalf("expected list trimmed to %d, got %d", maxJournalLen, len(items))
	}
}

func TestRedisJournal_Recent_EmptyJournal(t *testing.T) {
	t.Parallel()

	journal, _ := newTestJournal(t, time.Minute)

	recs, err := journal.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no entries, got %d", len(recs))
	}
}
