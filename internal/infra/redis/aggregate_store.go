package redis

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/issakobayashi1992/Lightning-league/internal/domain"
)

// AggregateBackend is the durable store behind the cache (e.g., Postgres).
type AggregateBackend interface {
	GetAggregate(ctx context.Context, playerID string) (domain.PlayerAggregate, error)
	PutAggregate(ctx context.Context, agg domain.PlayerAggregate) error
}

// AggregateStore caches player lifetime stats in Redis (hash per player) and
// falls back to the backend on cache miss.
// Stats are stored as:    HSET player:{playerID}:stats games/score/questions/avgBuzz
// Per-subject counts as:  HSET player:{playerID}:stats correct:{subject} {count}
type AggregateStore struct {
	client  *redis.Client
	backend AggregateBackend
	ttl     time.Duration
	sf      singleflight.Group
	rnd     *rand.Rand
}

func NewAggregateStore(client *redis.Client, backend AggregateBackend, ttl time.Duration) *AggregateStore {
	return &AggregateStore{
		client:  client,
		backend: backend,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *AggregateStore) GetAggregate(ctx context.Context, playerID string) (domain.PlayerAggregate, error) {
	key := s.key(playerID)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return buildAggregateFromCache(playerID, fields), nil
	}

	result, err, _ := s.sf.Do(playerID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			return buildAggregateFromCache(playerID, fields), nil
		}

		agg, err := s.backend.GetAggregate(ctx, playerID)
		if err != nil {
			return domain.PlayerAggregate{}, err
		}
		s.cache(ctx, agg)
		return agg, nil
	})
	if err != nil {
		return domain.PlayerAggregate{}, err
	}
	return result.(domain.PlayerAggregate), nil
}

// PutAggregate writes through to the backend and refreshes the cache.
func (s *AggregateStore) PutAggregate(ctx context.Context, agg domain.PlayerAggregate) error {
	if err := s.backend.PutAggregate(ctx, agg); err != nil {
		return err
	}
	s.cache(ctx, agg)
	return nil
}

func (s *AggregateStore) cache(ctx context.Context, agg domain.PlayerAggregate) {
	key := s.key(agg.PlayerID)
	ttl := s.ttlWithJitter()

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"games", agg.GamesPlayed,
		"score", agg.TotalScore,
		"questions", agg.TotalQuestions,
		"avgBuzz", strconv.FormatFloat(agg.AvgBuzzTime, 'f', -1, 64),
	)
	for subject, count := range agg.CorrectBySubject {
		pipe.HSet(ctx, key, "correct:"+subject, count)
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (s *AggregateStore) key(playerID string) string {
	return "player:" + playerID + ":stats"
}

func buildAggregateFromCache(playerID string, fields map[string]string) domain.PlayerAggregate {
	agg := domain.PlayerAggregate{
		PlayerID:         playerID,
		CorrectBySubject: make(map[string]int),
	}
	for field, raw := range fields {
		switch {
		case field == "games":
			agg.GamesPlayed, _ = strconv.Atoi(raw)
		case field == "score":
			agg.TotalScore, _ = strconv.Atoi(raw)
		case field == "questions":
			agg.TotalQuestions, _ = strconv.Atoi(raw)
		case field == "avgBuzz":
			agg.AvgBuzzTime, _ = strconv.ParseFloat(raw, 64)
		case strings.HasPrefix(field, "correct:"):
			count, err := strconv.Atoi(raw)
			if err == nil {
				agg.CorrectBySubject[strings.TrimPrefix(field, "correct:")] = count
			}
		}
	}
	return agg
}

func (s *AggregateStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
