// Package auth handles signup, login and JWT issuance. A new account gets
// the marketplace defaults: 10 tokens, a 100.00 trust index and a random
// 6-digit public id.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gamemarket/rmt-marketplace/internal/apperr"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// signupTokens is the free balance every new trader starts with.
const signupTokens = 10

var ErrInvalidCredentials = errors.New("invalid email or password")

type Service struct {
	db        *gorm.DB
	jwtSecret string
}

func New(db *gorm.DB, jwtSecret string) *Service {
	return &Service{db: db, jwtSecret: jwtSecret}
}

// Register creates a user with the signup defaults and returns it. The
// public id is regenerated until it does not collide.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperr.ErrValidation)
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: an account with this email already exists", apperr.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	publicID, err := s.generatePublicID(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:      email,
		Password:   string(hash),
		Name:       name,
		Role:       models.RoleUser,
		PublicID:   publicID,
		Tokens:     signupTokens,
		TrustIndex: decimal.NewFromInt(100),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.signToken(user.ID)
}

// TokenFor signs a bearer token for an already-authenticated user, such as
// one that was just registered.
func (s *Service) TokenFor(userID uint) (string, error) {
	return s.signToken(userID)
}

// GetUser loads a user by id.
func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile sets the optional profile fields that are present.
func (s *Service) UpdateProfile(ctx context.Context, id uint, country, nickname *string) (*models.User, error) {
	updates := map[string]interface{}{}
	if country != nil {
		updates["country"] = *country
	}
	if nickname != nil {
		updates["nickname"] = *nickname
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ErrNotFound
		}
	}
	return s.GetUser(ctx, id)
}

func (s *Service) signToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// generatePublicID draws uniformly random 6-digit ids until one is unused.
func (s *Service) generatePublicID(ctx context.Context) (string, error) {
	for {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			return "", err
		}
		candidate := fmt.Sprintf("%06d", n.Int64())

		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("public_id = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}
