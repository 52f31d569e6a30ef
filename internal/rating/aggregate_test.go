package rating

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func reviewsOf(ratings ...int) []Review {
	out := make([]Review, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, Review{ProductRef: "plant_001", Rating: r})
	}
	return out
}

func TestRecomputeAveragesAndCounts(t *testing.T) {
	summary, ok := Recompute(reviewsOf(5, 5, 4))

	require.True(t, ok)
	require.Equal(t, "4.7", summary.AverageRating.StringFixed(AveragePlaces))
	require.Equal(t, 3, summary.TotalReviews)
}

func TestRecomputeEmptyLeavesSummaryUnset(t *testing.T) {
	summary, ok := Recompute(nil)

	require.False(t, ok)
	require.Zero(t, summary.TotalReviews)
}

func TestRecomputeRoundsHalfAwayFromZero(t *testing.T) {
	// 4.25 rounds up to 4.3
	summary, ok := Recompute(reviewsOf(5, 4, 4, 4))

	require.True(t, ok)
	require.Equal(t, "4.3", summary.AverageRating.StringFixed(AveragePlaces))
}

func TestRecomputeStaysWithinRatingBounds(t *testing.T) {
	sets := [][]int{{1}, {5}, {1, 1, 2}, {5, 5, 5, 4}, {1, 2, 3, 4, 5}, {3, 3, 3}}
	lo := decimal.NewFromInt(MinRating)
	hi := decimal.NewFromInt(MaxRating)
	for _, set := range sets {
		summary, ok := Recompute(reviewsOf(set...))
		require.True(t, ok)
		require.True(t, summary.AverageRating.GreaterThanOrEqual(lo))
		require.True(t, summary.AverageRating.LessThanOrEqual(hi))
		require.Equal(t, len(set), summary.TotalReviews)
	}
}

func TestValidRating(t *testing.T) {
	require.True(t, ValidRating(1))
	require.True(t, ValidRating(5))
	require.False(t, ValidRating(0))
	require.False(t, ValidRating(6))
}
