package features

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsemetrics/analytics-api/internal/models"
)

func TestExtract(t *testing.T) {
	event := models.AnalyticsEvent{
		Timestamp: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC),
		UserID:    "user_123",
		EventType: "page_view",
		PageURL:   "/dashboard",
		SessionID: "sess_abcdef",
	}

	vector := Extract(event)

	require.Len(t, vector, Dim)
	assert.Equal(t, []float64{8, 10, 11, 15, 9}, vector)
}

func TestExtractIdempotent(t *testing.T) {
	event := models.AnalyticsEvent{
		Timestamp: time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC),
		UserID:    "u",
		PageURL:   "/",
		SessionID: "s",
	}

	assert.Equal(t, Extract(event), Extract(event))
}

func TestExtractAlwaysFiveFeatures(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		event := models.AnalyticsEvent{
			Timestamp: faker.Date(),
			UserID:    faker.Username(),
			EventType: faker.RandomString([]string{"page_view", "click", "scroll"}),
			PageURL:   faker.URL(),
			SessionID: faker.UUID(),
		}
		assert.Len(t, Extract(event), Dim)
	}

	// Empty identifiers are still syntactically valid events.
	assert.Len(t, Extract(models.AnalyticsEvent{}), Dim)
}

func TestExtractBatchPreservesOrder(t *testing.T) {
	events := []models.AnalyticsEvent{
		{Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), UserID: "a"},
		{Timestamp: time.Date(2025, 1, 1, 1, 1, 0, 0, time.UTC), UserID: "bb"},
		{Timestamp: time.Date(2025, 1, 1, 2, 2, 0, 0, time.UTC), UserID: "ccc"},
	}

	vectors := ExtractBatch(events)

	require.Len(t, vectors, 3)
	for i, e := range events {
		assert.Equal(t, Extract(e), vectors[i])
	}

	assert.Empty(t, ExtractBatch(nil))
}
