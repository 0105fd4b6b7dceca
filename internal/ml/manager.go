package ml

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Config holds the anomaly model's training parameters.
type Config struct {
	Trees           int
	SampleSize      int
	Contamination   float64
	Seed            int64
	BaselineSamples int
	FeatureDim      int
}

// DefaultConfig mirrors the production model: 100 trees over a 1000x5
// standard-normal baseline, 10% contamination, seed 42.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		SampleSize:      256,
		Contamination:   0.10,
		Seed:            42,
		BaselineSamples: 1000,
		FeatureDim:      5,
	}
}

// Manager owns the anomaly model's lifecycle: one-shot training against the
// synthetic baseline and the atomic publish of the trained model. Readers
// that observe a non-nil model observe it fully constructed; after a failed
// initialization the manager stays not-ready for the life of the process.
type Manager struct {
	cfg    Config
	logger *logrus.Logger

	initOnce sync.Once
	model    atomic.Pointer[IsolationForest]
	initErr  error
}

// NewManager creates a manager in the not-ready state. Training does not
// start until Initialize is called.
func NewManager(cfg Config, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Initialize constructs the model, trains it against the synthetic baseline
// and publishes it. It runs at most once; repeated calls return the outcome
// of the first. The returned error is informational for the startup hook —
// the manager absorbs the failure and simply never becomes ready.
func (m *Manager) Initialize() error {
	m.initOnce.Do(func() {
		if m.cfg.BaselineSamples <= 0 || m.cfg.FeatureDim <= 0 {
			m.initErr = fmt.Errorf("ml: invalid baseline shape %dx%d", m.cfg.BaselineSamples, m.cfg.FeatureDim)
			m.logger.WithError(m.initErr).Error("Failed to load ML model")
			return
		}

		forest := NewIsolationForest(
			WithTrees(m.cfg.Trees),
			WithSampleSize(m.cfg.SampleSize),
			WithContamination(m.cfg.Contamination),
			WithSeed(m.cfg.Seed),
		)
		baseline := SyntheticBaseline(m.cfg.BaselineSamples, m.cfg.FeatureDim, m.cfg.Seed)

		if err := forest.Fit(baseline); err != nil {
			m.initErr = fmt.Errorf("ml: training failed: %w", err)
			m.logger.WithError(err).Error("Failed to load ML model")
			return
		}

		m.model.Store(forest)
		m.logger.WithFields(logrus.Fields{
			"trees":       m.cfg.Trees,
			"feature_dim": m.cfg.FeatureDim,
			"baseline":    m.cfg.BaselineSamples,
		}).Info("ML model loaded successfully")
	})
	return m.initErr
}

// IsReady reports whether a trained model has been published.
func (m *Manager) IsReady() bool {
	return m.model.Load() != nil
}

// Model returns the trained model, or nil while the manager is not ready.
// The returned forest is immutable and safe for unbounded concurrent reads.
func (m *Manager) Model() *IsolationForest {
	return m.model.Load()
}

// Err returns the terminal initialization failure, if any.
func (m *Manager) Err() error {
	return m.initErr
}
