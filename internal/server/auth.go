package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"hireline/internal/repo"
)

type AuthConfig struct {
	JWTSecret string
	Logger    *log.Logger
}

const (
	RoleCompany   = "company"
	RoleCandidate = "candidate"
)

// Principal is the authenticated caller. Company principals act for one
// company; candidate principals act for one candidate.
type Principal struct {
	Role        string
	CompanyID   string
	CandidateID string
	Source      string
}

type principalKey struct{}

func (c AuthConfig) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// companyFromContext requires a company principal.
func companyFromContext(ctx context.Context) (string, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return "", newAPIError(http.StatusUnauthorized, "authentication required")
	}
	if p.Role != RoleCompany || p.CompanyID == "" {
		return "", newAPIError(http.StatusForbidden, "company role required")
	}
	return p.CompanyID, nil
}

// candidateFromContext requires a candidate principal.
func candidateFromContext(ctx context.Context) (string, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return "", newAPIError(http.StatusUnauthorized, "authentication required")
	}
	if p.Role != RoleCandidate || p.CandidateID == "" {
		return "", newAPIError(http.StatusForbidden, "candidate role required")
	}
	return p.CandidateID, nil
}

func actorFromContext(ctx context.Context) string {
	p, ok := principalFromContext(ctx)
	if !ok {
		return ""
	}
	if p.Role == RoleCandidate {
		return p.CandidateID
	}
	return p.CompanyID
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Role        string `json:"role,omitempty"`
	CompanyID   string `json:"company_id,omitempty"`
	CandidateID string `json:"candidate_id,omitempty"`
}

func authenticateJWT(token string, secret string) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	switch claims.Role {
	case RoleCompany:
		companyID := claims.CompanyID
		if companyID == "" {
			companyID = claims.Subject
		}
		if companyID == "" {
			return Principal{}, errors.New("company claim required")
		}
		return Principal{Role: RoleCompany, CompanyID: companyID, Source: "jwt"}, nil
	case RoleCandidate:
		candidateID := claims.CandidateID
		if candidateID == "" {
			candidateID = claims.Subject
		}
		if candidateID == "" {
			return Principal{}, errors.New("candidate claim required")
		}
		return Principal{Role: RoleCandidate, CandidateID: candidateID, Source: "jwt"}, nil
	default:
		return Principal{}, errors.New("role claim required")
	}
}

// API keys belong to a company; a valid key yields a company principal.
func authenticateAPIKey(ctx context.Context, r repo.Repo, key string) (Principal, error) {
	if strings.TrimSpace(key) == "" {
		return Principal{}, errors.New("api key required")
	}
	apiKey, err := r.GetAPIKeyByHash(ctx, repo.HashAPIKey(key))
	if err != nil {
		return Principal{}, err
	}
	if apiKey.CompanyID == "" {
		return Principal{}, errors.New("api key missing company")
	}
	return Principal{Role: RoleCompany, CompanyID: apiKey.CompanyID, Source: "api_key"}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func newAuthMiddleware(basePath string, cfg AuthConfig, r repo.Repo) func(http.Handler) http.Handler {
	healthPath := path.Join(basePath, "health")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			if req.URL.Path == healthPath {
				next.ServeHTTP(w, req)
				return
			}

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			apiKeyHeader := strings.TrimSpace(req.Header.Get("X-Api-Key"))

			if authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid credentials"))
					return
				}
				principal, err := authenticateJWT(token, cfg.JWTSecret)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid credentials"))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			if apiKeyHeader != "" {
				principal, err := authenticateAPIKey(req.Context(), r, apiKeyHeader)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid credentials"))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			respondStatusError(w, newAPIError(http.StatusUnauthorized, "authentication required"))
		})
	}
}

// IssueToken mints an HS256 token for a principal. Used by the CLI and tests.
func IssueToken(secret, role, subject string) (string, error) {
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             role,
	}
	switch role {
	case RoleCompany:
		claims.CompanyID = subject
	case RoleCandidate:
		claims.CandidateID = subject
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
