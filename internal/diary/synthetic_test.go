package diary

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodiary/diary-backend/internal/models"
)

func testInjector(seed int64) *SyntheticInjector {
	return NewSyntheticInjector(rand.New(rand.NewSource(seed)), 7, 22)
}

func TestGenerateVisits_EmptyDayStaysEmpty(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, testInjector(1).GenerateVisits(nil, date))
}

func TestGenerateVisits_FitsFreeSlots(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	real := []models.Visit{
		makeVisit("r1", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 3600, models.ConfidenceHigh),
		makeVisit("r2", time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), 3600, models.ConfidenceHigh),
	}

	for seed := int64(0); seed < 20; seed++ {
		visits := testInjector(seed).GenerateVisits(real, date)

		require.NotEmpty(t, visits)
		assert.LessOrEqual(t, len(visits), maxSyntheticVisits)

		for _, v := range visits {
			assert.True(t, models.IsSyntheticID(v.ID))
			assert.Empty(t, v.MemberPingIDs)
			assert.GreaterOrEqual(t, v.PingCount, 2)
			assert.Equal(t, models.VisitTypeVisit, v.VisitType)
			assert.NotEmpty(t, v.PrimaryPlaceType)
			assert.LessOrEqual(t, v.DurationS, int64(3600))

			// Визит лежит внутри дневного окна и не пересекает реальные
			assert.False(t, v.StartedAt.Before(time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)))
			assert.False(t, v.EndedAt.After(time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)))
			for _, r := range real {
				overlap := v.StartedAt.Before(r.EndedAt) && r.StartedAt.Before(v.EndedAt)
				assert.False(t, overlap, "synthetic visit overlaps real visit")
			}
		}
	}
}

func TestGenerateVisits_Deterministic(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	real := []models.Visit{
		makeVisit("r1", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 1800, models.ConfidenceHigh),
	}

	a := testInjector(42).GenerateVisits(real, date)
	b := testInjector(42).GenerateVisits(real, date)
	assert.Equal(t, a, b)
}

func TestGenerateVisits_EmptyPlaceTypesNotReused(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Реальные визиты без типа места: пул переиспользования пуст,
	// тип всегда берется из каталога
	real := []models.Visit{
		makeVisit("r1", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 3600, models.ConfidenceHigh),
		makeVisit("r2", time.Date(2026, 3, 14, 14, 0, 0, 0, time.UTC), 3600, models.ConfidenceHigh),
	}

	for seed := int64(0); seed < 50; seed++ {
		for _, v := range testInjector(seed).GenerateVisits(real, date) {
			assert.NotEmpty(t, v.PrimaryPlaceType)
		}
	}
}

func TestGenerateVisits_NoRoomNoVisits(t *testing.T) {
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	// Один визит на все дневное окно — свободных слотов нет
	real := []models.Visit{
		makeVisit("all-day", time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC), 15*3600, models.ConfidenceHigh),
	}

	assert.Empty(t, testInjector(7).GenerateVisits(real, date))
}

func TestGenerateJourneys_ConnectsNeighbors(t *testing.T) {
	real := makeVisit("real", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), 3600, models.ConfidenceHigh)
	synthetic := makeVisit("syn_abc", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 1800, models.ConfidenceMedium)

	journeys := testInjector(3).GenerateJourneys(
		[]models.Visit{real, synthetic},
		map[string]bool{"syn_abc": true},
	)

	require.Len(t, journeys, 1)
	j := journeys[0]
	assert.True(t, models.IsSyntheticID(j.ID))
	assert.Equal(t, "real", j.FromVisitID)
	assert.Equal(t, "syn_abc", j.ToVisitID)
	assert.Equal(t, real.EndedAt, j.StartedAt)
	assert.Equal(t, synthetic.StartedAt, j.EndedAt)
	assert.Equal(t, models.ConfidenceMedium, j.Confidence)
	assert.GreaterOrEqual(t, j.PingCount, 1)
	assert.True(t, j.PrimaryTransport.Active())
	assert.InDelta(t, 0.85, j.TransportProportions[j.PrimaryTransport], 1e-9)
	assert.InDelta(t, 0.15, j.TransportProportions[models.MotionUnknown], 1e-9)
}

func TestGenerateJourneys_DeduplicatesPairs(t *testing.T) {
	// Два синтетических визита подряд: пара между ними — кандидат с обеих сторон
	s1 := makeVisit("syn_1", time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), 1800, models.ConfidenceMedium)
	s2 := makeVisit("syn_2", time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), 1800, models.ConfidenceMedium)

	journeys := testInjector(5).GenerateJourneys(
		[]models.Visit{s1, s2},
		map[string]bool{"syn_1": true, "syn_2": true},
	)

	require.Len(t, journeys, 1)
	assert.Equal(t, "syn_1", journeys[0].FromVisitID)
	assert.Equal(t, "syn_2", journeys[0].ToVisitID)
}

func TestPickTransportDistribution(t *testing.T) {
	inj := testInjector(11)
	counts := map[models.Motion]int{}
	for i := 0; i < 4000; i++ {
		counts[inj.pickTransport()]++
	}

	assert.InDelta(t, 0.40, float64(counts[models.MotionWalking])/4000, 0.05)
	assert.InDelta(t, 0.40, float64(counts[models.MotionAutomotive])/4000, 0.05)
	assert.InDelta(t, 0.15, float64(counts[models.MotionCycling])/4000, 0.05)
	assert.InDelta(t, 0.05, float64(counts[models.MotionRunning])/4000, 0.05)
}
