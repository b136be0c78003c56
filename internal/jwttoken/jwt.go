package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "github.com/Onahi7/napps-sub001/pkg/domain-errors"
	"github.com/Onahi7/napps-sub001/pkg/requestcontext"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation. Session issuance lives with
// the external auth provider; this service only mints and checks the tokens
// that carry the principal into this process.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

func (s *Service) GenerateAccessToken(profileID uuid.UUID, role requestcontext.Role, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token, returning the principal it
// carries. Implements middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (requestcontext.AuthPrincipal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	role := requestcontext.Role(claims.Role)
	switch role {
	case requestcontext.RoleParticipant, requestcontext.RoleValidator, requestcontext.RoleAdmin:
	default:
		return requestcontext.AuthPrincipal{}, dErrors.New(dErrors.CodeUnauthorized, "unknown role claim")
	}

	return requestcontext.AuthPrincipal{ID: subject, Role: role}, nil
}
