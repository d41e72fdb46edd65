package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenith-desktop/zenith/internal/weather"
)

func TestStatusStore_Empty(t *testing.T) {
	s := NewStatusStore()

	_, err := s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.LatestSample()
	assert.ErrorIs(t, err, ErrNoSample)

	runs, failures := s.Counters()
	assert.Zero(t, runs)
	assert.Zero(t, failures)
}

func TestStatusStore_RecordKeepsLastSample(t *testing.T) {
	s := NewStatusStore()
	sample := weather.Sample{TemperatureC: 4, WeatherCode: 5}

	s.Record(weather.RunReport{RunID: "a", Stage: weather.StageBackgroundApplied, Sample: &sample, Category: weather.CategoryRain})
	sample.WeatherCode = 99 // the store holds its own copy

	s.Record(weather.RunReport{RunID: "b", Stage: weather.StageIPResolved, Err: "boom"})
	s.Record(weather.RunReport{RunID: "c", Stage: weather.StageInit, Err: "boom"})

	latest, err := s.Latest()
	require.NoError(t, err)
	assert.Equal(t, "c", latest.RunID)
	assert.Nil(t, latest.Sample)

	got, err := s.LatestSample()
	require.NoError(t, err)
	assert.Equal(t, 5, got.WeatherCode)

	runs, failures := s.Counters()
	assert.Equal(t, 3, runs)
	assert.Equal(t, 2, failures)

	s.Record(weather.RunReport{RunID: "d", Stage: weather.StageSkipped})
	_, failures = s.Counters()
	assert.Zero(t, failures)
}
