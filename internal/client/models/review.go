package models

import "time"

// LocalReviewPrefix starts every locally authored review id.
const LocalReviewPrefix = "local-"

// LocalReview is a review written on this device. It overlays the remote
// reviews of a product and is never sent anywhere.
type LocalReview struct {
	ID           string    `json:"id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewerName"`
	UserID       int64     `json:"userId"`
	Date         time.Time `json:"date"`
	IsLocal      bool      `json:"isLocal"`
}

// DisplayReview is the merged shape shown to users. Remote reviews leave ID
// and UserID empty.
type DisplayReview struct {
	ID            string    `json:"id,omitempty"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	Date          time.Time `json:"date"`
	ReviewerName  string    `json:"reviewerName"`
	ReviewerEmail string    `json:"reviewerEmail,omitempty"`
	UserID        int64     `json:"userId,omitempty"`
	IsLocal       bool      `json:"isLocal"`
}

func (r Review) Display() DisplayReview {
	return DisplayReview{
		Rating:        r.Rating,
		Comment:       r.Comment,
		Date:          r.Date,
		ReviewerName:  r.ReviewerName,
		ReviewerEmail: r.ReviewerEmail,
	}
}

func (r LocalReview) Display() DisplayReview {
	return DisplayReview{
		ID:           r.ID,
		Rating:       r.Rating,
		Comment:      r.Comment,
		Date:         r.Date,
		ReviewerName: r.ReviewerName,
		UserID:       r.UserID,
		IsLocal:      true,
	}
}
