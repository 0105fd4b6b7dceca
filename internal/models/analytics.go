package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// AnalyticsEvent represents a single user-interaction record submitted for scoring.
type AnalyticsEvent struct {
	Timestamp time.Time                `json:"timestamp" binding:"required"`
	UserID    string                   `json:"user_id" binding:"required"`
	EventType string                   `json:"event_type"`
	PageURL   string                   `json:"page_url"`
	SessionID string                   `json:"session_id"`
	Metadata  map[string]MetadataValue `json:"metadata,omitempty"`
}

// MetadataKind identifies the concrete type held by a MetadataValue.
type MetadataKind int

const (
	MetadataNull MetadataKind = iota
	MetadataString
	MetadataNumber
	MetadataBool
	MetadataRaw // nested objects and arrays, kept as raw JSON
)

// MetadataValue is a tagged variant for event metadata. Scalars are narrowed
// to concrete Go types at the decoding boundary; nested structures are
// retained as raw JSON since nothing downstream inspects them.
type MetadataValue struct {
	Kind   MetadataKind
	Str    string
	Num    float64
	Bool   bool
	RawVal json.RawMessage
}

func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		v.Kind = MetadataNull
		return nil
	}
	switch data[0] {
	case '"':
		v.Kind = MetadataString
		return json.Unmarshal(data, &v.Str)
	case 't', 'f':
		v.Kind = MetadataBool
		return json.Unmarshal(data, &v.Bool)
	case '{', '[':
		v.Kind = MetadataRaw
		v.RawVal = append(json.RawMessage(nil), data...)
		return nil
	default:
		if err := json.Unmarshal(data, &v.Num); err != nil {
			return fmt.Errorf("metadata value: %w", err)
		}
		v.Kind = MetadataNumber
		return nil
	}
}

func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case MetadataString:
		return json.Marshal(v.Str)
	case MetadataNumber:
		return json.Marshal(v.Num)
	case MetadataBool:
		return json.Marshal(v.Bool)
	case MetadataRaw:
		return v.RawVal, nil
	default:
		return []byte("null"), nil
	}
}

// ScoringResult aggregates the outcome of one processed batch.
type ScoringResult struct {
	ProcessedEvents   int       `json:"processed_events"`
	AnomaliesDetected int       `json:"anomalies_detected"`
	ProcessedAt       time.Time `json:"processed_at"`
}

// AnalyticsResponse is the envelope returned by the analytics endpoints.
type AnalyticsResponse struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// AnalyticsSummary is the aggregate usage report served by the summary endpoint.
type AnalyticsSummary struct {
	TotalEvents       int64      `json:"total_events"`
	UniqueUsers       int64      `json:"unique_users"`
	Sessions          int64      `json:"sessions"`
	AnomaliesDetected int64      `json:"anomalies_detected"`
	TopPages          []PageView `json:"top_pages"`
	LastUpdated       time.Time  `json:"last_updated"`
}

// PageView pairs a page with its accumulated view count.
type PageView struct {
	Page  string `json:"page"`
	Views int64  `json:"views"`
}
