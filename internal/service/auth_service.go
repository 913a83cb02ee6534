package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wedge-matrix/internal/domain"
)

const (
	tokenTypeAccess = "access"
	bearerTokenType = "Bearer"
)

// AuthService emite, valida y revoca los tokens de acceso.
// Un token solo es valido mientras su jti siga registrado en el TokenStore.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  TokenStore
	now    func() time.Time
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewAuthService(secret string, ttl time.Duration, store TokenStore) *AuthService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &AuthService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "wedge-matrix",
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// IssueToken crea un token nuevo con jti propio; los tokens previos del usuario siguen vigentes.
func (s *AuthService) IssueToken(ctx context.Context, user domain.User) (AccessToken, error) {
	if len(s.secret) == 0 || strings.TrimSpace(user.ID) == "" {
		return AccessToken{}, ErrTokenInvalid
	}
	now := s.now()
	jti := uuid.NewString()
	claims := Claims{
		UserID:    user.ID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	if err := s.store.Store(ctx, jti, user.ID, s.ttl); err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		AccessToken: signed,
		TokenType:   bearerTokenType,
		ExpiresIn:   int64(s.ttl.Seconds()),
	}, nil
}

// ParseToken valida firma, emisor y tipo, y exige que el jti siga registrado.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (Claims, error) {
	claims, err := s.parseSigned(raw)
	if err != nil {
		return Claims{}, err
	}
	ok, err := s.store.Exists(ctx, claims.ID)
	if err != nil {
		return Claims{}, err
	}
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// Revoke invalida un unico token.
func (s *AuthService) Revoke(ctx context.Context, raw string) error {
	claims, err := s.parseSigned(raw)
	if err != nil {
		return err
	}
	return s.store.Revoke(ctx, claims.ID)
}

// RevokeAll invalida todos los tokens emitidos para el usuario.
func (s *AuthService) RevokeAll(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	return s.store.RevokeAll(ctx, userID)
}

func (s *AuthService) parseSigned(raw string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(raw) == "" {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.ID) == "" {
		return false
	}
	if claims.Subject != claims.UserID {
		return false
	}
	if claims.TokenType != tokenTypeAccess {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
