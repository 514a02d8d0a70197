package service

import (
	"errors"
	"time"

	"round1/internal/config"
	"round1/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const devJWTSecret = "round1-dev-secret-change-in-production"

// AuthService handles recruiter and candidate authentication
type AuthService struct {
	recruiterUsername string
	recruiterPassword string
	jwtSecret         []byte
	candidateTTL      time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}
	ttl := time.Duration(cfg.CandidateTokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &AuthService{
		recruiterUsername: cfg.RecruiterUsername,
		recruiterPassword: cfg.RecruiterPassword,
		jwtSecret:         []byte(secret),
		candidateTTL:      ttl,
	}
}

// Login validates recruiter credentials and returns a permanent token.
// The recruiter id is stable per username so job ownership survives re-login.
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.recruiterUsername || password != s.recruiterPassword {
		return nil, ErrInvalidCredentials
	}

	recruiterID := "recruiter_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(username)).String()[:8]

	claims := &model.RecruiterClaims{
		RecruiterID: recruiterID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:       tokenString,
		RecruiterID: recruiterID,
	}, nil
}

// ValidateRecruiterToken validates a recruiter JWT and returns claims
func (s *AuthService) ValidateRecruiterToken(tokenString string) (*model.RecruiterClaims, error) {
	claims := &model.RecruiterClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.RecruiterID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateCandidateToken creates a session-scoped token for a candidate
func (s *AuthService) GenerateCandidateToken(sessionID string) (string, error) {
	claims := &model.CandidateClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.candidateTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateCandidateToken validates a candidate JWT and returns claims
func (s *AuthService) ValidateCandidateToken(tokenString string) (*model.CandidateClaims, error) {
	claims := &model.CandidateClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
