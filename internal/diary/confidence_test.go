package diary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodiary/diary-backend/internal/models"
)

func TestScoreCluster_StationaryHighConfidence(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Шесть плотных still-пингов с точностью 5 м:
	// (1.0*0.55 + 1.0*0.25 + 0.85*0.20) * 1.15 > 1 → high
	pings := stationaryCluster(base, 0, 0, 6, "cafe")

	confidence, visitType := scoreCluster(pings)

	assert.Equal(t, models.ConfidenceHigh, confidence)
	assert.Equal(t, models.VisitTypeConfirmed, visitType)
}

func TestScoreCluster_TrafficStop(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pings := make([]models.RawPing, 4)
	for i := range pings {
		pings[i] = testPing("a", float64(i), 0, base.Add(time.Duration(i)*time.Minute),
			models.MotionAutomotive, models.MotionConfidenceHigh, "road", nil)
	}

	confidence, visitType := scoreCluster(pings)

	// (1.0*0.55 + 0.7*0.25 + 0.85*0.20) * 0.6 ≈ 0.54 → low
	assert.Equal(t, models.ConfidenceLow, confidence)
	assert.Equal(t, models.VisitTypeTrafficStop, visitType)
}

func TestScoreCluster_MediumOnSpreadPings(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Пары на 35 м дают medium-согласованность:
	// ((2/3)*0.55 + 0.7*0.25 + 0.65*0.20) * 1.15 ≈ 0.77 → medium
	pings := []models.RawPing{
		testPing("p1", 0, 0, base, models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
		testPing("p2", 0, 35, base.Add(time.Minute), models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
		testPing("p3", 0, 70, base.Add(2*time.Minute), models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
	}

	confidence, visitType := scoreCluster(pings)

	assert.Equal(t, models.ConfidenceMedium, confidence)
	assert.Equal(t, models.VisitTypeConfirmed, visitType)
}

func TestScoreCluster_SinglePing(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	pings := []models.RawPing{
		testPing("p1", 0, 0, base, models.MotionStill, models.MotionConfidenceHigh, "home", acc(5)),
	}

	confidence, _ := scoreCluster(pings)

	// ((1/3)*0.55 + 1.0*0.25 + 0.3*0.20) * 1.15 ≈ 0.57 → medium
	assert.Equal(t, models.ConfidenceMedium, confidence)
}

func TestScoreCluster_ArrivalByCarNotPenalized(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Приезд на машине: первый пинг еще automotive, дальше устройство
	// стоит. Пара automotive→still благоприятна и дает high на 20 м;
	// (1.0*0.55 + 0.75*0.25 + 0.65*0.20) ≈ 0.87 → high
	pings := []models.RawPing{
		testPing("p1", 0, 0, base, models.MotionAutomotive, models.MotionConfidenceHigh, "cafe", acc(50)),
		testPing("p2", 0, 20, base.Add(3*time.Minute), models.MotionStill, models.MotionConfidenceHigh, "cafe", acc(50)),
		testPing("p3", 0, 40, base.Add(6*time.Minute), models.MotionStill, models.MotionConfidenceHigh, "cafe", acc(50)),
	}

	confidence, visitType := scoreCluster(pings)

	assert.Equal(t, models.ConfidenceHigh, confidence)
	assert.Equal(t, models.VisitTypeVisit, visitType)
}

func TestPairConfidence(t *testing.T) {
	still := models.MotionSample{Motion: models.MotionStill, Confidence: models.MotionConfidenceHigh}
	stillLow := models.MotionSample{Motion: models.MotionStill, Confidence: models.MotionConfidenceLow}
	walking := models.MotionSample{Motion: models.MotionWalking, Confidence: models.MotionConfidenceMedium}
	walkingLow := models.MotionSample{Motion: models.MotionWalking, Confidence: models.MotionConfidenceLow}
	automotive := models.MotionSample{Motion: models.MotionAutomotive, Confidence: models.MotionConfidenceHigh}

	tests := []struct {
		name     string
		distance float64
		prev     models.MotionSample
		curr     models.MotionSample
		want     models.Confidence
	}{
		{"same motion close", 10, still, still, models.ConfidenceHigh},
		{"same motion medium distance", 40, still, still, models.ConfidenceMedium},
		{"same motion far", 60, still, still, models.ConfidenceLow},
		{"still and walking close", 10, still, walking, models.ConfidenceHigh},
		{"still and low-confidence walking capped", 10, still, walkingLow, models.ConfidenceMedium},
		{"arrival by car settles close", 10, automotive, still, models.ConfidenceHigh},
		{"arrival by car settles medium distance", 40, automotive, still, models.ConfidenceMedium},
		{"arrival onto low-confidence still capped", 10, automotive, stillLow, models.ConfidenceMedium},
		{"mode switch capped at medium", 10, still, automotive, models.ConfidenceMedium},
		{"mode switch far", 60, still, automotive, models.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pairConfidence(tt.distance, tt.prev, tt.curr))
		})
	}
}

func TestAccuracyScore(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	withAcc := func(values ...float64) []models.RawPing {
		pings := make([]models.RawPing, len(values))
		for i, v := range values {
			pings[i] = testPing("p", 0, 0, base, models.MotionStill, models.MotionConfidenceHigh, "home", acc(v))
		}
		return pings
	}

	assert.Equal(t, 1.0, accuracyScore(withAcc(5, 10)))
	assert.Equal(t, 0.9, accuracyScore(withAcc(20, 30)))
	assert.Equal(t, 0.75, accuracyScore(withAcc(50, 60)))
	assert.Equal(t, 0.5, accuracyScore(withAcc(100, 200)))

	// Без данных о точности — нейтральный балл
	noAcc := []models.RawPing{testPing("p", 0, 0, base, models.MotionStill, models.MotionConfidenceHigh, "home", nil)}
	assert.Equal(t, 0.7, accuracyScore(noAcc))
}

func TestCountScore(t *testing.T) {
	assert.Equal(t, 0.3, countScore(1))
	assert.Equal(t, 0.65, countScore(3))
	assert.Equal(t, 0.85, countScore(6))
	assert.Equal(t, 1.0, countScore(7))
}

func TestMotionProfile(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	mixed := []models.RawPing{
		testPing("p1", 0, 0, base, models.MotionStill, models.MotionConfidenceHigh, "x", nil),
		testPing("p2", 0, 0, base, models.MotionCycling, models.MotionConfidenceHigh, "x", nil),
		testPing("p3", 0, 0, base, models.MotionRunning, models.MotionConfidenceHigh, "x", nil),
	}

	mult, visitType := motionProfile(mixed)
	require.Equal(t, models.VisitTypeVisit, visitType)
	assert.Equal(t, 1.0, mult)
}
