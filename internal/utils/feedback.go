package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FeedbackTokens mints and verifies the anonymous tokens handed to walk-in
// visitors when their reservation is completed.  A token grants the VISITOR
// role for exactly one reservation.
type FeedbackTokens struct {
	secret string
	ttl    time.Duration
	now    func() time.Time
}

// NewFeedbackTokens returns a minter signing with secret.  Tokens expire
// after ttl.
func NewFeedbackTokens(secret string, ttl time.Duration) *FeedbackTokens {
	return &FeedbackTokens{secret: secret, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// MintFeedbackToken issues a token whose subject is reservationID.
func (f *FeedbackTokens) MintFeedbackToken(reservationID string) (string, error) {
	now := f.now()
	claims := Claims{
		Role: "VISITOR",
		Type: TokenTypeFeedback,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   reservationID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(f.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(f.secret))
}

// Parse validates a feedback token and returns the reservation id it is
// bound to.
func (f *FeedbackTokens) Parse(token string) (string, error) {
	claims, err := ParseToken(f.secret, token, TokenTypeFeedback)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
