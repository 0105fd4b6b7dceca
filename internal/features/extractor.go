// Package features converts analytics events into the fixed-width numeric
// vectors the anomaly model consumes.
package features

import "github.com/pulsemetrics/analytics-api/internal/models"

// Dim is the width of every extracted vector. It must match the model's
// trained dimensionality; the extractor and the model are versioned together.
const Dim = 5

// Extract derives the feature vector for one event:
// [len(user_id), len(page_url), len(session_id), hour, minute].
// It is pure and total: any syntactically valid event yields a vector.
func Extract(e models.AnalyticsEvent) []float64 {
	return []float64{
		float64(len(e.UserID)),
		float64(len(e.PageURL)),
		float64(len(e.SessionID)),
		float64(e.Timestamp.Hour()),
		float64(e.Timestamp.Minute()),
	}
}

// ExtractBatch maps Extract over a batch, preserving order.
func ExtractBatch(events []models.AnalyticsEvent) [][]float64 {
	vectors := make([][]float64, len(events))
	for i, e := range events {
		vectors[i] = Extract(e)
	}
	return vectors
}
