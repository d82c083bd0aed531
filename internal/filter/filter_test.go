package filter

import (
	"testing"
	"time"

	"github.com/geodiary/diary-backend/internal/models"
	"github.com/geodiary/diary-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *utils.Logger {
	return utils.NewLogger("fatal", "text")
}

func cartesianPing(id string, x, y float64, ts time.Time) models.RawPing {
	return models.RawPing{
		ID:        id,
		Timestamp: ts,
		Position:  models.NewCartesianPosition(x, y),
		Motion:    models.MotionSample{Motion: models.MotionStill, Confidence: models.MotionConfidenceHigh},
	}
}

func TestAccuracyFilter(t *testing.T) {
	good := 20.0
	bad := 150.0
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pings := []models.RawPing{
		cartesianPing("p1", 0, 0, base),
		cartesianPing("p2", 5, 5, base.Add(time.Minute)),
		cartesianPing("p3", 10, 10, base.Add(2*time.Minute)),
	}
	pings[0].HorizontalAccuracyM = &good
	pings[1].HorizontalAccuracyM = &bad
	// p3 без данных о точности — должен пройти

	f := NewAccuracyFilter(DefaultConfig(), testLogger())
	result := f.Filter(pings)

	assert.Equal(t, 3, result.OriginalCount)
	assert.Equal(t, 1, result.DroppedCount)
	require.Len(t, result.Pings, 2)
	assert.Equal(t, "p1", result.Pings[0].ID)
	assert.Equal(t, "p3", result.Pings[1].ID)
}

func TestMedianFilter_SuppressesSingleSpike(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pings := []models.RawPing{
		cartesianPing("p1", 0, 0, base),
		cartesianPing("p2", 500, 500, base.Add(time.Minute)), // выброс
		cartesianPing("p3", 2, 2, base.Add(2*time.Minute)),
		cartesianPing("p4", 4, 4, base.Add(3*time.Minute)),
	}

	f := NewMedianFilter(DefaultConfig(), testLogger())
	result := f.Filter(pings)

	require.Len(t, result.Pings, 4)
	x, y, ok := result.Pings[1].Position.Cartesian()
	require.True(t, ok)
	assert.InDelta(t, 2.0, x, 1e-9)
	assert.InDelta(t, 2.0, y, 1e-9)
	assert.Greater(t, result.AdjustedCount, 0)

	// Вход не изменяется
	origX, origY, _ := pings[1].Position.Cartesian()
	assert.Equal(t, 500.0, origX)
	assert.Equal(t, 500.0, origY)
}

func TestMedianFilter_ShortSequencePassesThrough(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	pings := []models.RawPing{
		cartesianPing("p1", 0, 0, base),
		cartesianPing("p2", 300, 300, base.Add(time.Minute)),
	}

	f := NewMedianFilter(DefaultConfig(), testLogger())
	result := f.Filter(pings)

	assert.Equal(t, 0, result.AdjustedCount)
	x, _, _ := result.Pings[1].Position.Cartesian()
	assert.Equal(t, 300.0, x)
}

func TestMedianFilter_PolarPingsExcludedFromWindows(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	polar := models.RawPing{
		ID:        "legacy",
		Timestamp: base.Add(time.Minute),
		Position:  models.NewPolarPosition(4000, 45),
	}

	pings := []models.RawPing{
		cartesianPing("p1", 0, 0, base),
		polar,
		cartesianPing("p3", 2, 2, base.Add(2*time.Minute)),
		cartesianPing("p4", 4, 4, base.Add(3*time.Minute)),
	}

	f := NewMedianFilter(DefaultConfig(), testLogger())
	result := f.Filter(pings)

	// Полярный пинг проходит без изменений
	assert.False(t, result.Pings[1].Position.HasCartesian())
	assert.InDelta(t, 4000.0, result.Pings[1].Position.DistanceM(), 1e-9)

	// Окно p3 — это [legacy, p3, p4]; медиана берется только по
	// картезианским соседям (2 и 4)
	x, y, ok := result.Pings[2].Position.Cartesian()
	require.True(t, ok)
	assert.InDelta(t, 3.0, x, 1e-9)
	assert.InDelta(t, 3.0, y, 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
	assert.Equal(t, 7.0, median([]float64{7}))
}
