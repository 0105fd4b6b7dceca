package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemetrics/analytics-api/internal/features"
	"github.com/pulsemetrics/analytics-api/internal/ml"
	"github.com/pulsemetrics/analytics-api/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func readyManager(t *testing.T) *ml.Manager {
	t.Helper()
	m := ml.NewManager(ml.DefaultConfig(), testLogger())
	require.NoError(t, m.Initialize())
	return m
}

func makeEvents(n int) []models.AnalyticsEvent {
	events := make([]models.AnalyticsEvent, n)
	for i := range events {
		events[i] = models.AnalyticsEvent{
			Timestamp: time.Date(2025, 5, 20, 10, i%60, 0, 0, time.UTC),
			UserID:    "user_42",
			EventType: "page_view",
			PageURL:   "/dashboard",
			SessionID: "sess_1234",
		}
	}
	return events
}

func TestProcessEmptyBatch(t *testing.T) {
	p := NewScoringPipeline(readyManager(t), testLogger())

	result, err := p.Process(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ProcessedEvents)
	assert.Equal(t, 0, result.AnomaliesDetected)
	assert.False(t, result.ProcessedAt.IsZero())
}

func TestProcessModelNotReady(t *testing.T) {
	m := ml.NewManager(ml.DefaultConfig(), testLogger())
	p := NewScoringPipeline(m, testLogger())

	result, err := p.Process(context.Background(), makeEvents(7))

	require.NoError(t, err, "model-unready is degraded, not an error")
	assert.Equal(t, 7, result.ProcessedEvents)
	assert.Equal(t, 0, result.AnomaliesDetected)
}

func TestProcessReadyBatch(t *testing.T) {
	m := readyManager(t)
	p := NewScoringPipeline(m, testLogger())
	events := makeEvents(10)

	result, err := p.Process(context.Background(), events)

	require.NoError(t, err)
	assert.Equal(t, 10, result.ProcessedEvents)
	assert.GreaterOrEqual(t, result.AnomaliesDetected, 0)
	assert.LessOrEqual(t, result.AnomaliesDetected, 10)
}

func TestProcessCountsMatchModelVerdicts(t *testing.T) {
	m := readyManager(t)
	p := NewScoringPipeline(m, testLogger())

	// Identifiers far longer than anything in the standard-normal baseline:
	// the extracted vectors sit far from the training centroid.
	events := []models.AnalyticsEvent{
		{
			Timestamp: time.Date(2025, 5, 20, 23, 59, 0, 0, time.UTC),
			UserID:    strings.Repeat("u", 500),
			PageURL:   strings.Repeat("p", 500),
			SessionID: strings.Repeat("s", 500),
		},
		{
			Timestamp: time.Date(2025, 5, 20, 23, 58, 0, 0, time.UTC),
			UserID:    strings.Repeat("v", 400),
			PageURL:   strings.Repeat("q", 400),
			SessionID: strings.Repeat("t", 400),
		},
		{
			Timestamp: time.Date(2025, 5, 20, 23, 57, 0, 0, time.UTC),
			UserID:    strings.Repeat("w", 300),
			PageURL:   strings.Repeat("r", 300),
			SessionID: strings.Repeat("x", 300),
		},
	}

	result, err := p.Process(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ProcessedEvents)

	verdicts, err := m.Model().Predict(features.ExtractBatch(events))
	require.NoError(t, err)

	want := 0
	for _, v := range verdicts {
		if v == ml.VerdictAnomalous {
			want++
		}
	}
	assert.Equal(t, want, result.AnomaliesDetected, "pipeline count must agree with the model's verdicts")
}

func TestProcessDeterministic(t *testing.T) {
	p := NewScoringPipeline(readyManager(t), testLogger())
	events := makeEvents(25)

	first, err := p.Process(context.Background(), events)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), events)
	require.NoError(t, err)

	assert.Equal(t, first.ProcessedEvents, second.ProcessedEvents)
	assert.Equal(t, first.AnomaliesDetected, second.AnomaliesDetected)
}
