// Package reputation records trade reviews and keeps the reviewed user's
// trust index in sync with their review counters.
package reputation

import (
	"context"
	"fmt"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateReview inserts the review, bumps the reviewee's matching counter and
// totalTrades, and recomputes the trust index from the post-increment
// counts. Self-reviews are rejected; repeated reviews of the same order are
// accepted, as they are in the storefront.
func (s *Service) CreateReview(ctx context.Context, reviewerID, orderID, revieweeID uint, rating, comment string) (*models.Review, error) {
	if rating != models.RatingPositive && rating != models.RatingNegative {
		return nil, fmt.Errorf("%w: rating must be positive or negative", apperr.ErrValidation)
	}
	if reviewerID == revieweeID {
		return nil, fmt.Errorf("%w: you cannot review yourself", apperr.ErrValidation)
	}

	review := &models.Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		RevieweeID: revieweeID,
		Rating:     rating,
		Comment:    comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}

		counter := "positive_reviews"
		if rating == models.RatingNegative {
			counter = "negative_reviews"
		}
		res := tx.Model(&models.User{}).Where("id = ?", revieweeID).Updates(map[string]interface{}{
			counter:        gorm.Expr(counter + " + 1"),
			"total_trades": gorm.Expr("total_trades + 1"),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		var reviewee models.User
		if err := tx.Select("positive_reviews", "negative_reviews").First(&reviewee, revieweeID).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", revieweeID).
			UpdateColumn("trust_index", TrustIndex(reviewee.PositiveReviews, reviewee.NegativeReviews)).Error
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListUserReviews returns every review where the user is the reviewee.
func (s *Service) ListUserReviews(ctx context.Context, userID uint) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	err := s.db.WithContext(ctx).
		Where("reviewee_id = ?", userID).
		Order("created_at desc").
		Find(&reviews).Error
	return reviews, err
}

// TrustIndex derives the 0-100 reputation score from review counts. A user
// with no reviews keeps the default 100.
func TrustIndex(positive, negative int) decimal.Decimal {
	total := positive + negative
	if total == 0 {
		return decimal.NewFromInt(100)
	}
	return decimal.NewFromInt(int64(positive)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
