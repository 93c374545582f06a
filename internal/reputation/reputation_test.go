package reputation_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/gamemarket/rmt-marketplace/internal/reputation"
	"github.com/gamemarket/rmt-marketplace/internal/store/storetest"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var userSeq int

func createUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	userSeq++
	user := models.User{
		Email:      fmt.Sprintf("%s-%d@test.com", t.Name(), userSeq),
		PublicID:   fmt.Sprintf("1%05d", userSeq),
		Role:       models.RoleUser,
		Tokens:     10,
		TrustIndex: decimal.NewFromInt(100),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func reload(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user
}

func TestTrustIndex(t *testing.T) {
	cases := []struct {
		positive, negative int
		want               string
	}{
		{0, 0, "100"},
		{1, 0, "100"},
		{0, 1, "0"},
		{3, 1, "75"},
		{1, 2, "33.33"},
		{2, 1, "66.67"},
	}
	for _, tc := range cases {
		got := reputation.TrustIndex(tc.positive, tc.negative)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("TrustIndex(%d, %d) = %s, want %s", tc.positive, tc.negative, got, tc.want)
		}
	}
}

func TestCreateReviewUpdatesCounters(t *testing.T) {
	db := storetest.Open(t)
	svc := reputation.New(db)
	ctx := context.Background()
	reviewer := createUser(t, db)
	reviewee := createUser(t, db)

	if _, err := svc.CreateReview(ctx, reviewer.ID, 1, reviewee.ID, models.RatingPositive, "smooth trade"); err != nil {
		t.Fatalf("positive review: %v", err)
	}

	got := reload(t, db, reviewee.ID)
	if got.PositiveReviews != 1 || got.NegativeReviews != 0 || got.TotalTrades != 1 {
		t.Errorf("unexpected counters: %+v", got)
	}
	if !got.TrustIndex.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected trust index 100, got %s", got.TrustIndex)
	}

	if _, err := svc.CreateReview(ctx, reviewer.ID, 2, reviewee.ID, models.RatingNegative, "never showed up"); err != nil {
		t.Fatalf("negative review: %v", err)
	}

	got = reload(t, db, reviewee.ID)
	if got.PositiveReviews != 1 || got.NegativeReviews != 1 || got.TotalTrades != 2 {
		t.Errorf("unexpected counters after negative review: %+v", got)
	}
	// Post-increment counts: 1/(1+1)*100 = 50.
	if !got.TrustIndex.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected trust index 50, got %s", got.TrustIndex)
	}
}

func TestCreateReviewRepeatedRounds(t *testing.T) {
	db := storetest.Open(t)
	svc := reputation.New(db)
	ctx := context.Background()
	reviewer := createUser(t, db)
	reviewee := createUser(t, db)

	ratings := []string{
		models.RatingPositive, models.RatingPositive, models.RatingNegative,
	}
	for i, rating := range ratings {
		if _, err := svc.CreateReview(ctx, reviewer.ID, uint(i+1), reviewee.ID, rating, ""); err != nil {
			t.Fatalf("review %d: %v", i, err)
		}
	}

	got := reload(t, db, reviewee.ID)
	if got.TotalTrades != 3 {
		t.Errorf("expected 3 trades, got %d", got.TotalTrades)
	}
	// 2/(2+1)*100 = 66.67 rounded to two places.
	if !got.TrustIndex.Equal(decimal.RequireFromString("66.67")) {
		t.Errorf("expected trust index 66.67, got %s", got.TrustIndex)
	}

	var count int64
	db.Model(&models.Review{}).Where("reviewee_id = ?", reviewee.ID).Count(&count)
	if count != 3 {
		t.Errorf("expected 3 review rows, got %d", count)
	}
}

func TestCreateReviewRejectsSelfReview(t *testing.T) {
	db := storetest.Open(t)
	svc := reputation.New(db)
	user := createUser(t, db)

	_, err := svc.CreateReview(context.Background(), user.ID, 1, user.ID, models.RatingPositive, "")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateReviewUnknownReviewee(t *testing.T) {
	db := storetest.Open(t)
	svc := reputation.New(db)
	reviewer := createUser(t, db)

	_, err := svc.CreateReview(context.Background(), reviewer.ID, 1, 9999, models.RatingPositive, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// The review row must not survive the rolled-back transaction.
	var count int64
	db.Model(&models.Review{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no review rows, got %d", count)
	}
}

func TestListUserReviews(t *testing.T) {
	db := storetest.Open(t)
	svc := reputation.New(db)
	ctx := context.Background()
	reviewer := createUser(t, db)
	reviewee := createUser(t, db)

	if _, err := svc.CreateReview(ctx, reviewer.ID, 1, reviewee.ID, models.RatingPositive, "fast"); err != nil {
		t.Fatalf("review: %v", err)
	}
	if _, err := svc.CreateReview(ctx, reviewee.ID, 1, reviewer.ID, models.RatingPositive, "paid on time"); err != nil {
		t.Fatalf("counter review: %v", err)
	}

	reviews, err := svc.ListUserReviews(ctx, reviewee.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Comment != "fast" {
		t.Errorf("expected the single received review, got %+v", reviews)
	}
}
