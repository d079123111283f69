package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mzhuravlev/fittrack/internal/models"
)

var (
	// ErrInvalidToken covers every access-token failure (bad signature,
	// wrong issuer or audience, expired, malformed) so callers cannot
	// tell which check failed. It also covers unknown refresh tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpired is returned for a known refresh token past its expiry.
	ErrExpired = errors.New("token expired")
)

const refreshTokenBytes = 64

// Config is loaded once at startup and read-only afterwards.
type Config struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AccessClaims struct {
	DisplayName string `json:"name"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

type Pair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type Service struct {
	DB  *gorm.DB
	Cfg Config
}

func (s *Service) IssueAccessToken(user models.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.Cfg.AccessTTL)
	claims := AccessClaims{
		DisplayName: user.DisplayName,
		Role:        user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    s.Cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.Cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.Cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *Service) ValidateAccessToken(raw string) (*AccessClaims, error) {
	var claims AccessClaims
	t, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return s.Cfg.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.Cfg.Issuer),
		jwt.WithAudience(s.Cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// IssueRefreshToken mints an opaque token from crypto/rand. The token
// itself is returned to the client; only its hash ever reaches storage.
func (s *Service) IssueRefreshToken() (string, time.Time, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, err
	}
	return base64.RawURLEncoding.EncodeToString(buf), time.Now().Add(s.Cfg.RefreshTTL), nil
}

func hashRefresh(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// StoreRefresh upserts the single session row of a user. Writing a new
// token invalidates whatever was stored before.
func (s *Service) StoreRefresh(username, raw string, exp time.Time) error {
	sess := models.Session{
		Username:         username,
		RefreshTokenHash: hashRefresh(raw),
		ExpiresAt:        exp,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"refresh_token_hash", "expires_at"}),
	}).Create(&sess).Error
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IssuePair mints an access/refresh pair for the user and makes the new
// refresh token the user's only live one.
func (s *Service) IssuePair(user models.User) (*Pair, error) {
	access, accessExp, err := s.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.StoreRefresh(user.Username, refresh, refreshExp); err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func refreshExpired(exp time.Time) bool {
	return exp.IsZero() || exp.Before(time.Now())
}

// Redeem exchanges a refresh token for a new pair and rotates the stored
// token, so the presented token cannot be redeemed twice. Unknown tokens
// yield ErrInvalidToken, known but stale ones ErrExpired.
func (s *Service) Redeem(raw string) (*Pair, *models.User, error) {
	var sess models.Session
	if err := s.DB.Where("refresh_token_hash = ?", hashRefresh(raw)).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	if refreshExpired(sess.ExpiresAt) {
		return nil, nil, ErrExpired
	}

	var user models.User
	if err := s.DB.Where("username = ?", sess.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	pair, err := s.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, &user, nil
}

// Revoke clears the user's session. Revoking a user with no session is
// not an error.
func (s *Service) Revoke(username string) error {
	if err := s.DB.Where("username = ?", username).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
