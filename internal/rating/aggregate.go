package rating

import (
	"time"

	"github.com/shopspring/decimal"
)

// AveragePlaces is the number of fraction digits kept on an average rating.
const AveragePlaces = 1

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single product review as used for aggregation.
type Review struct {
	ID           string
	ProductRef   string
	AuthorRef    string
	Rating       int
	Comment      string
	CreatedAt    time.Time
	HelpfulCount int
}

// Summary is the displayed rating of a product.
type Summary struct {
	AverageRating decimal.Decimal `json:"average_rating"`
	TotalReviews  int             `json:"total_reviews"`
}

// Recompute derives the rating summary from the full review set of a product.
// It returns false when reviews is empty, in which case the stored summary
// must be left untouched.
func Recompute(reviews []Review) (Summary, bool) {
	if len(reviews) == 0 {
		return Summary{}, false
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	count := int64(len(reviews))
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(AveragePlaces)
	return Summary{AverageRating: avg, TotalReviews: len(reviews)}, true
}

// ValidRating reports whether v is an allowed star rating.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}
