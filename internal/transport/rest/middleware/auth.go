package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"round1/internal/service"

	"github.com/gorilla/mux"
)

type contextKey string

const (
	RecruiterIDKey contextKey = "recruiterId"
	SessionIDKey   contextKey = "sessionId"
)

var (
	errMissingToken = errors.New("missing authorization")
	errBadToken     = errors.New("invalid or expired token")
	errWrongSession = errors.New("token is not valid for this interview")
)

// grant is the single identity a validated token puts on the request context
type grant struct {
	key contextKey
	id  string
}

// tokenCheck validates a raw token for one kind of caller
type tokenCheck func(r *http.Request, token string) (grant, error)

// AuthMiddleware guards routes with the recruiter and candidate JWTs
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireRecruiter admits requests carrying a recruiter bearer token
func (m *AuthMiddleware) RequireRecruiter(next http.Handler) http.Handler {
	return guard(next, false, m.recruiter)
}

// RequireCandidate admits requests carrying a candidate token, as a bearer
// header or a token query param. A token only opens the interview named in
// the {id} route var.
func (m *AuthMiddleware) RequireCandidate(next http.Handler) http.Handler {
	return guard(next, true, m.candidate)
}

func (m *AuthMiddleware) recruiter(_ *http.Request, token string) (grant, error) {
	claims, err := m.authSvc.ValidateRecruiterToken(token)
	if err != nil {
		return grant{}, errBadToken
	}
	return grant{RecruiterIDKey, claims.RecruiterID}, nil
}

func (m *AuthMiddleware) candidate(r *http.Request, token string) (grant, error) {
	claims, err := m.authSvc.ValidateCandidateToken(token)
	if err != nil {
		return grant{}, errBadToken
	}
	if id := mux.Vars(r)["id"]; id != "" && id != claims.SessionID {
		return grant{}, errWrongSession
	}
	return grant{SessionIDKey, claims.SessionID}, nil
}

func guard(next http.Handler, queryToken bool, check tokenCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" && queryToken {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			deny(w, errMissingToken)
			return
		}

		g, err := check(r, token)
		if err != nil {
			deny(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), g.key, g.id)))
	})
}

// deny answers 403 when the token is good but bound elsewhere, 401 otherwise
func deny(w http.ResponseWriter, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, errWrongSession) {
		status = http.StatusForbidden
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="round1"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func fromContext(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRecruiterID returns the recruiter authenticated by RequireRecruiter
func GetRecruiterID(ctx context.Context) string {
	return fromContext(ctx, RecruiterIDKey)
}

// GetSessionID returns the interview a RequireCandidate token is bound to
func GetSessionID(ctx context.Context) string {
	return fromContext(ctx, SessionIDKey)
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
