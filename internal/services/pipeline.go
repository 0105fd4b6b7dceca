// Package services hosts the batch scoring pipeline and the usage stats
// tracker behind the analytics endpoints.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pulsemetrics/analytics-api/internal/features"
	"github.com/pulsemetrics/analytics-api/internal/ml"
	"github.com/pulsemetrics/analytics-api/internal/models"
)

// ScoringPipeline turns a batch of analytics events into an aggregate
// scoring result: validate, extract features, score against the anomaly
// model when it is ready, count verdicts.
type ScoringPipeline struct {
	models *ml.Manager
	logger *logrus.Logger
}

// NewScoringPipeline creates a pipeline reading the model through the given
// lifecycle manager.
func NewScoringPipeline(manager *ml.Manager, logger *logrus.Logger) *ScoringPipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &ScoringPipeline{models: manager, logger: logger}
}

// Process scores one batch. An empty batch yields a zero result. A not-ready
// model yields processed=len(events) with zero anomalies: ingestion stays
// available without scoring. Any failure inside extraction or scoring is
// converted to an error here; it never escapes as a fault and no partial
// result is returned.
func (p *ScoringPipeline) Process(ctx context.Context, events []models.AnalyticsEvent) (result *models.ScoringResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("scoring pipeline panic: %v", r)
			p.logger.WithField("panic", r).Error("Recovered panic while processing analytics batch")
		}
	}()

	now := time.Now()

	if len(events) == 0 {
		return &models.ScoringResult{ProcessedAt: now}, nil
	}

	forest := p.models.Model()
	if forest == nil {
		p.logger.WithField("batch_size", len(events)).Warn("Model not ready, skipping anomaly scoring")
		return &models.ScoringResult{
			ProcessedEvents: len(events),
			ProcessedAt:     now,
		}, nil
	}

	vectors := features.ExtractBatch(events)
	verdicts, err := forest.Predict(vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to score batch of %d events: %w", len(events), err)
	}

	anomalies := 0
	for _, v := range verdicts {
		if v == ml.VerdictAnomalous {
			anomalies++
		}
	}

	p.logger.WithFields(logrus.Fields{
		"batch_size": len(events),
		"anomalies":  anomalies,
	}).Debug("Processed analytics batch")

	return &models.ScoringResult{
		ProcessedEvents:   len(events),
		AnomaliesDetected: anomalies,
		ProcessedAt:       now,
	}, nil
}
