package models

// Snapshot is the persisted subset of the session. The search term is
// deliberately absent.
type Snapshot struct {
	Cart            []Product             `json:"cart"`
	Favorites       []Product             `json:"favorites"`
	IsAuthenticated bool                  `json:"isAuthenticated"`
	CurrentUser     *Account              `json:"currentUser"`
	LocalReviews    map[int][]LocalReview `json:"localReviews"`
}
