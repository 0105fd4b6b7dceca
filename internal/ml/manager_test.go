package ml

import (
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestManagerNotReadyBeforeInitialize(t *testing.T) {
	m := NewManager(DefaultConfig(), testLogger())

	assert.False(t, m.IsReady())
	assert.Nil(t, m.Model())
	assert.NoError(t, m.Err())
}

func TestManagerInitializeSuccess(t *testing.T) {
	m := NewManager(DefaultConfig(), testLogger())

	require.NoError(t, m.Initialize())
	assert.True(t, m.IsReady())

	forest := m.Model()
	require.NotNil(t, forest)
	assert.Equal(t, 5, forest.Dim())
}

func TestManagerInitializeFailureIsTerminal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaselineSamples = 0

	m := NewManager(cfg, testLogger())

	err := m.Initialize()
	require.Error(t, err)
	assert.False(t, m.IsReady())
	assert.Nil(t, m.Model())
	assert.Error(t, m.Err())

	// Repeated calls do not retry: the failure state is permanent.
	assert.Equal(t, err, m.Initialize())
	assert.False(t, m.IsReady())
}

func TestManagerInitializeRunsOnce(t *testing.T) {
	m := NewManager(DefaultConfig(), testLogger())

	require.NoError(t, m.Initialize())
	first := m.Model()

	require.NoError(t, m.Initialize())
	assert.Same(t, first, m.Model(), "second Initialize must not rebuild the model")
}

func TestManagerConcurrentReads(t *testing.T) {
	m := NewManager(DefaultConfig(), testLogger())
	require.NoError(t, m.Initialize())

	sample := generateTestData(20, 5)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forest := m.Model()
			if !assert.NotNil(t, forest) {
				return
			}
			verdicts, err := forest.Predict(sample)
			assert.NoError(t, err)
			assert.Len(t, verdicts, len(sample))
		}()
	}
	wg.Wait()
}

func TestSyntheticBaselineDeterminism(t *testing.T) {
	a := SyntheticBaseline(1000, 5, 42)
	b := SyntheticBaseline(1000, 5, 42)

	require.Len(t, a, 1000)
	require.Len(t, a[0], 5)
	assert.Equal(t, a, b, "baseline generation must be reproducible for a fixed seed")

	c := SyntheticBaseline(1000, 5, 43)
	assert.NotEqual(t, a, c)
}
