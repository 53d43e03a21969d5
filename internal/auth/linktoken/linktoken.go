// Package linktoken signs the change-request links handed to website
// customers after an order is stored.
package linktoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer     = "crown-portal"
	defaultTTL = 90 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid_link_token")

// Claims binds a link to one job and the website order that created it.
type Claims struct {
	OrderID string `json:"oid"`
	jwt.RegisteredClaims
}

type Link struct {
	JobID   snowflake.ID
	OrderID string
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func New(cfg config.Config, clk clock.Clock) *Issuer {
	return &Issuer{
		secret: []byte(cfg.AuthJWTSecret),
		ttl:    defaultTTL,
		clock:  clk,
	}
}

func (i *Issuer) Issue(jobID snowflake.ID, orderID string) (string, error) {
	if jobID == 0 || strings.TrimSpace(orderID) == "" {
		return "", ErrInvalidToken
	}
	now := i.clock.Now()
	claims := Claims{
		OrderID: orderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   jobID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the link target.
func (i *Issuer) Verify(raw string) (Link, error) {
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return Link{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Link{}, ErrInvalidToken
	}
	jobID, err := snowflake.ParseString(claims.Subject)
	if err != nil || jobID == 0 || claims.OrderID == "" {
		return Link{}, ErrInvalidToken
	}
	return Link{JobID: jobID, OrderID: claims.OrderID}, nil
}
