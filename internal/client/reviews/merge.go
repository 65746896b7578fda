// Package reviews combines remote product reviews with the reviews written
// locally on this device.
package reviews

import "github.com/dmitrijs2005/gophshop/internal/client/models"

// Merge returns the remote reviews in feed order followed by the local ones
// in submission order. Nothing is deduplicated or re-sorted.
func Merge(remote []models.Review, local []models.LocalReview) []models.DisplayReview {
	out := make([]models.DisplayReview, 0, len(remote)+len(local))
	for _, r := range remote {
		out = append(out, r.Display())
	}
	for _, r := range local {
		out = append(out, r.Display())
	}
	return out
}

// Average is the mean rating of reviews, or 0 when there are none.
func Average(reviews []models.DisplayReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
