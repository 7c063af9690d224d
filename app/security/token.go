package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

type Purpose string

const (
	PurposeSession      Purpose = "session"
	PurposeVerification Purpose = "verify_email"
	PurposeReset        Purpose = "reset_password"
)

var (
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenPurposeMismatch = errors.New("token purpose mismatch")
)

type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenExpired
	TokenPurposeMismatch
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenPurposeMismatch:
		return "purpose_mismatch"
	default:
		return "unknown"
	}
}

func (k TokenErrorKind) sentinel() error {
	switch k {
	case TokenExpired:
		return ErrTokenExpired
	case TokenPurposeMismatch:
		return ErrTokenPurposeMismatch
	default:
		return ErrTokenMalformed
	}
}

// TokenError is returned by Validate. errors.Is matches it against the
// ErrToken* sentinel of its kind as well as the underlying cause.
type TokenError struct {
	Kind  TokenErrorKind
	Cause error
}

func (e *TokenError) Error() string {
	if e.Cause == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Cause)
}

func (e *TokenError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Cause}
}

type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// TokenService signs and validates self-contained, expiring, purpose-bound
// tokens. It performs no I/O.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig, opts ...TokenOption) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, oops.Code("TOKEN_CONFIG").Errorf("signing secret is empty")
	}

	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, oops.Code("TOKEN_CONFIG").With("algorithm", cfg.Algorithm).Errorf("unsupported signing algorithm")
	}

	svc := &TokenService{
		secret: []byte(cfg.Secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *TokenService) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

func (s *TokenService) Validate(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, &TokenError{Kind: TokenExpired, Cause: err}
		}
		return nil, &TokenError{Kind: TokenMalformed, Cause: err}
	}
	if !token.Valid || claims.Subject == "" {
		return nil, &TokenError{Kind: TokenMalformed}
	}
	if claims.Purpose != purpose {
		return nil, &TokenError{Kind: TokenPurposeMismatch}
	}

	return claims, nil
}
