package services

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pulsemetrics/analytics-api/internal/models"
)

const (
	statsKeyEvents    = "analytics:events"
	statsKeyAnomalies = "analytics:anomalies"
	statsKeyUsers     = "analytics:users"
	statsKeySessions  = "analytics:sessions"
	statsKeyPages     = "analytics:pages"
	statsKeyRate      = "analytics:rate:" // per-minute counter suffix
)

// StatsTracker accumulates usage aggregates in Redis for the summary and
// realtime endpoints: plain counters for events and anomalies, HyperLogLogs
// for unique users and sessions, a sorted set for page views and a TTL'd
// per-minute event counter.
//
// All operations are best-effort. A nil or unreachable Redis degrades reads
// to zeros and turns writes into no-ops; the scoring path never fails on it.
type StatsTracker struct {
	redis  *redis.Client
	logger *logrus.Logger
}

// NewStatsTracker creates a tracker over the given client, which may be nil
// when Redis is not configured.
func NewStatsTracker(client *redis.Client, logger *logrus.Logger) *StatsTracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &StatsTracker{redis: client, logger: logger}
}

// RecordBatch folds one scored batch into the running aggregates.
func (s *StatsTracker) RecordBatch(ctx context.Context, events []models.AnalyticsEvent, anomalies int) {
	if s.redis == nil || len(events) == 0 {
		return
	}

	minuteKey := statsKeyRate + time.Now().UTC().Format("200601021504")

	_, err := s.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, statsKeyEvents, int64(len(events)))
		if anomalies > 0 {
			pipe.IncrBy(ctx, statsKeyAnomalies, int64(anomalies))
		}
		for _, e := range events {
			pipe.PFAdd(ctx, statsKeyUsers, e.UserID)
			if e.SessionID != "" {
				pipe.PFAdd(ctx, statsKeySessions, e.SessionID)
			}
			if e.PageURL != "" {
				pipe.ZIncrBy(ctx, statsKeyPages, 1, e.PageURL)
			}
		}
		pipe.IncrBy(ctx, minuteKey, int64(len(events)))
		pipe.Expire(ctx, minuteKey, 2*time.Minute)
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record analytics stats")
	}
}

// Summary reads the accumulated aggregates. Missing keys read as zeros.
func (s *StatsTracker) Summary(ctx context.Context) *models.AnalyticsSummary {
	summary := &models.AnalyticsSummary{
		TopPages:    []models.PageView{},
		LastUpdated: time.Now(),
	}
	if s.redis == nil {
		return summary
	}

	summary.TotalEvents = s.counter(ctx, statsKeyEvents)
	summary.AnomaliesDetected = s.counter(ctx, statsKeyAnomalies)

	if n, err := s.redis.PFCount(ctx, statsKeyUsers).Result(); err == nil {
		summary.UniqueUsers = n
	}
	if n, err := s.redis.PFCount(ctx, statsKeySessions).Result(); err == nil {
		summary.Sessions = n
	}

	pages, err := s.redis.ZRevRangeWithScores(ctx, statsKeyPages, 0, 2).Result()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read top pages")
		return summary
	}
	for _, z := range pages {
		page, ok := z.Member.(string)
		if !ok {
			continue
		}
		summary.TopPages = append(summary.TopPages, models.PageView{
			Page:  page,
			Views: int64(z.Score),
		})
	}
	return summary
}

// EventsPerMinute returns the event count recorded in the current minute
// window, zero when Redis is unavailable.
func (s *StatsTracker) EventsPerMinute(ctx context.Context) int64 {
	if s.redis == nil {
		return 0
	}
	key := statsKeyRate + time.Now().UTC().Format("200601021504")
	return s.counter(ctx, key)
}

func (s *StatsTracker) counter(ctx context.Context, key string) int64 {
	val, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to read analytics counter")
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
