package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
	"github.com/issakobayashi1992/Lightning-league/internal/infra/memory"
)

func TestAggregateStoreCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backend := &countingBackend{AggregateBackend: memory.NewAggregateStore()}
	store := NewAggregateStore(newClient(mr), backend, time.Minute)
	ctx := context.Background()

	seed := domain.PlayerAggregate{
		PlayerID:       "p1",
		GamesPlayed:    3,
		TotalScore:     12,
		TotalQuestions: 30,
		AvgBuzzTime:    1.42,
		CorrectBySubject: map[string]int{
			"MA": 7,
			"SS": 5,
		},
	}
	if err := store.PutAggregate(ctx, seed); err != nil {
		t.Fatalf("put aggregate: %v", err)
	}
	if !mr.Exists("player:p1:stats") {
		t.Fatalf("expected cached hash after write-through")
	}

	got, err := store.GetAggregate(ctx, "p1")
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}
	if backend.reads != 0 {
		t.Fatalf("expected cache hit, backend reads=%d", backend.reads)
	}
	if got.GamesPlayed != 3 || got.TotalScore != 12 || got.AvgBuzzTime != 1.42 {
		t.Fatalf("cache round-trip mangled aggregate: %+v", got)
	}
	if got.CorrectBySubject["MA"] != 7 || got.CorrectBySubject["SS"] != 5 {
		t.Fatalf("per-subject counts lost: %+v", got.CorrectBySubject)
	}

	// Expired cache falls back to the backend and refills.
	mr.Del("player:p1:stats")
	if _, err := store.GetAggregate(ctx, "p1"); err != nil {
		t.Fatalf("get aggregate after eviction: %v", err)
	}
	if backend.reads != 1 {
		t.Fatalf("expected one backend read, got %d", backend.reads)
	}
	if !mr.Exists("player:p1:stats") {
		t.Fatalf("expected cache refilled")
	}
}

type countingBackend struct {
	AggregateBackend
	reads int
}

func (b *countingBackend) GetAggregate(ctx context.Context, playerID string) (domain.PlayerAggregate, error) {
	b.reads++
	return b.AggregateBackend.GetAggregate(ctx, playerID)
}
