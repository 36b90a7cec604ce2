package dal

import (
	"context"
	"fmt"

	"stealthcompany.com/clinic/internal/docstore"
)

const (
	minRating = 1
	maxRating = 5
)

// Review is a rated free-text review.
type Review struct {
	Rating float64 `json:"rating"`
	Review string  `json:"review"`
}

// NewReview is the create request for a review. Rating is left untyped so
// a non-numeric value is reported as a validation error.
type NewReview struct {
	Rating interface{} `json:"rating"`
	Review *string     `json:"review"`
}

// ReviewModel handles review documents
type ReviewModel struct {
	store docstore.Store
}

// NewReviewModel creates a new review model instance
func NewReviewModel(store docstore.Store) *ReviewModel {
	return &ReviewModel{store: store}
}

// Create validates the rating and stores the review under a random id.
func (m *ReviewModel) Create(ctx context.Context, in NewReview) (string, error) {
	if in.Rating == nil || in.Review == nil {
		return "", Validation("rating and review fields are required")
	}
	rating, ok := in.Rating.(float64)
	if !ok {
		return "", Validation("rating must be a number")
	}
	if rating < minRating || rating > maxRating {
		return "", Validation("rating must be between %d and %d", minRating, maxRating)
	}

	id, err := m.store.Add(ctx, Reviews, Review{Rating: rating, Review: *in.Review})
	if err != nil {
		return "", fmt.Errorf("store review: %w", err)
	}
	return id, nil
}

// List returns every review keyed by id
func (m *ReviewModel) List(ctx context.Context) (map[string]Review, error) {
	snaps, err := m.store.Stream(ctx, Reviews)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return decodeAll[Review](snaps)
}

// Delete removes a review
func (m *ReviewModel) Delete(ctx context.Context, id string) error {
	return deleteExisting(ctx, m.store, Reviews, id, "Review not found")
}
