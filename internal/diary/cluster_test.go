package diary

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodiary/diary-backend/internal/models"
)

func testPing(id string, x, y float64, ts time.Time, motion models.Motion, conf models.MotionConfidence, place string, accuracy *float64) models.RawPing {
	return models.RawPing{
		ID:                  id,
		Timestamp:           ts,
		PrimaryPlaceType:    place,
		Motion:              models.MotionSample{Motion: motion, Confidence: conf},
		Position:            models.NewCartesianPosition(x, y),
		HorizontalAccuracyM: accuracy,
	}
}

func acc(v float64) *float64 {
	return &v
}

func stationaryCluster(start time.Time, x, y float64, count int, place string) []models.RawPing {
	pings := make([]models.RawPing, 0, count)
	for i := 0; i < count; i++ {
		pings = append(pings, testPing(
			fmt.Sprintf("%s-%d", place, i),
			x+float64(i), y,
			start.Add(time.Duration(i)*2*time.Minute),
			models.MotionStill, models.MotionConfidenceHigh,
			place, acc(5),
		))
	}
	return pings
}

func TestClusterPings_SplitsOnRadius(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pings := append(
		stationaryCluster(base, 0, 0, 3, "cafe"),
		stationaryCluster(base.Add(10*time.Minute), 500, 0, 3, "gym")...,
	)

	clusters := clusterPings(pings)

	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0].pings, 3)
	assert.Len(t, clusters[1].pings, 3)
}

func TestClusterPings_CentroidTracksMembers(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Цепочка по 35 м: каждый следующий в радиусе бегущего центроида
	pings := []models.RawPing{
		testPing("p1", 0, 0, base, models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
		testPing("p2", 0, 35, base.Add(time.Minute), models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
		testPing("p3", 0, 70, base.Add(2*time.Minute), models.MotionWalking, models.MotionConfidenceHigh, "park", nil),
	}

	clusters := clusterPings(pings)

	require.Len(t, clusters, 1)
	assert.Len(t, clusters[0].pings, 3)
}

func TestClusterPings_Empty(t *testing.T) {
	assert.Nil(t, clusterPings(nil))
}

func TestBuildVisits_RepresentativeFields(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	pings := stationaryCluster(base, 0, 0, 4, "cafe")
	pings[1].PrimaryPlaceType = "restaurant"
	pings[0].OtherPlaceTypes = []string{"bakery", "bar"}
	pings[2].OtherPlaceTypes = []string{"bar", "restaurant"}

	visits := BuildVisits(pings)

	require.Len(t, visits, 1)
	v := visits[0]
	assert.Equal(t, "cafe-0", v.ID)
	assert.Equal(t, []string{"cafe-0", "cafe-1", "cafe-2", "cafe-3"}, v.MemberPingIDs)
	assert.Equal(t, "cafe", v.PrimaryPlaceType)
	assert.Equal(t, []string{"bakery", "bar", "restaurant"}, v.OtherPlaceTypes)
	assert.Equal(t, models.MotionStill, v.DominantMotion.Motion)
	assert.Equal(t, int64(360), v.DurationS)
	assert.Equal(t, 4, v.PingCount)
}

func TestModeString_TieGoesToEarlier(t *testing.T) {
	assert.Equal(t, "cafe", modeString([]string{"cafe", "gym", "gym", "cafe"}))
	assert.Equal(t, "gym", modeString([]string{"cafe", "gym", "gym"}))
	assert.Equal(t, "", modeString(nil))
}

func BenchmarkClusterPings(b *testing.B) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	var pings []models.RawPing
	for i := 0; i < 20; i++ {
		pings = append(pings, stationaryCluster(
			base.Add(time.Duration(i)*30*time.Minute),
			float64(i)*500, 0, 12,
			fmt.Sprintf("place-%d", i),
		)...)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clusterPings(pings)
	}
}
