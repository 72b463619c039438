package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/rdotsilva/fitnessblog/internal/models"
)

const (
	SessionTTL  = 24 * time.Hour
	RememberTTL = 30 * 24 * time.Hour
	ResetTTL    = 1800 * time.Second
)

// Service signs and verifies the two token kinds the app uses: the session
// cookie credential and the emailed password-reset token. Secrets are fixed
// at startup.
type Service struct {
	SessionSecret []byte
	ResetSecret   []byte
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

type resetClaims struct {
	PasswordStamp string `json:"pwv"`
	jwt.RegisteredClaims
}

func (s *Service) IssueSession(userID uint, remember bool) (string, time.Time, error) {
	ttl := SessionTTL
	if remember {
		ttl = RememberTTL
	}
	exp := time.Now().Add(ttl)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.SessionSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *Service) ParseSession(raw string) (uint, error) {
	claims := &sessionClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.SessionSecret, nil
	})
	if err != nil || !t.Valid {
		return 0, fmt.Errorf("invalid session token: %w", err)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session subject: %w", err)
	}
	return uint(id), nil
}

// PasswordStamp derives a short digest of the stored password hash. A reset
// token carries the stamp current at issue time, so changing the password
// invalidates every outstanding token for that user.
func PasswordStamp(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:])[:12]
}

func (s *Service) IssueReset(user *models.User, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = ResetTTL
	}
	claims := resetClaims{
		PasswordStamp: PasswordStamp(user.PasswordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.ResetSecret)
}

// VerifyReset returns the user a valid token was issued for, or nil on any
// failure: bad signature, malformed token, expiry, unknown user, or a stamp
// from a password that has since changed. Callers must not distinguish the
// cases to the end user.
func (s *Service) VerifyReset(db *gorm.DB, raw string) *models.User {
	claims := &resetClaims{}
	t, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signature method: %v", t.Header["alg"])
		}
		return s.ResetSecret, nil
	})
	if err != nil || !t.Valid {
		return nil
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil
	}
	var user models.User
	if err := db.First(&user, uint(id)).Error; err != nil {
		return nil
	}
	if claims.PasswordStamp != PasswordStamp(user.PasswordHash) {
		return nil
	}
	return &user
}
