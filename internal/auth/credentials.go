package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chefai/internal/config"
	"chefai/internal/users"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const SessionCookie = "chefai_session"

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Credentials signs users in with an email and password and keeps the
// session in an HS256 JWT. Any non-empty password is accepted.
type Credentials struct {
	secret      []byte
	duration    time.Duration
	secure      bool
	storage     *users.Storage
	revocations *Revocations
	now         func() time.Time
}

var _ AuthClient = (*Credentials)(nil)

func NewCredentials(cfg config.AuthConfig, storage *users.Storage, revocations *Revocations) *Credentials {
	days := cfg.SessionDays
	if days <= 0 {
		days = 30
	}
	return &Credentials{
		secret:      []byte(cfg.Secret),
		duration:    time.Duration(days) * 24 * time.Hour,
		secure:      cfg.CookieSecure,
		storage:     storage,
		revocations: revocations,
		now:         time.Now,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
	User      userView  `json:"user"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Credentials) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", c.login)
	mux.HandleFunc("POST /auth/logout", c.logout)
	mux.HandleFunc("GET /auth/session", c.session)
}

// Issue signs a session token for user.
func (c *Credentials) Issue(user *users.User) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(c.duration)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: user.PrimaryEmail(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return token, expires, nil
}

func (c *Credentials) parse(ctx context.Context, tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Join(ErrNoSession, err)
	}
	revoked, err := c.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("session revoked: %w", ErrNoSession)
	}
	return claims, nil
}

// Authenticate resolves a session token to its user.
func (c *Credentials) Authenticate(ctx context.Context, tokenString string) (*users.User, error) {
	claims, err := c.parse(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	user, err := c.storage.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, fmt.Errorf("session user %s: %w", claims.Subject, ErrNoSession)
		}
		return nil, err
	}
	return user, nil
}

func tokenFromRequest(r *http.Request, cookieName string) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		return strings.TrimSpace(token), ok
	}
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func (c *Credentials) WithAuthHTTP(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokenFromRequest(r, SessionCookie)
		if !ok || token == "" {
			handler.ServeHTTP(w, r)
			return
		}
		user, err := c.Authenticate(r.Context(), token)
		if err != nil {
			slog.WarnContext(r.Context(), "invalid session", "error", err)
			handler.ServeHTTP(w, r)
			return
		}
		handler.ServeHTTP(w, r.WithContext(users.ContextWithUser(r.Context(), user)))
	})
}

func (c *Credentials) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidCredentials.Error())
		return
	}
	email, err := users.ParseEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}

	user, err := c.storage.FindOrCreateByEmail(ctx, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to find or create user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	token, expires, err := c.Issue(user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	users.SetCookie(w, SessionCookie, token, c.duration, c.secure)
	slog.InfoContext(ctx, "user signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: expires,
		User:      userView{ID: user.ID, Email: user.PrimaryEmail()},
	})
}

func (c *Credentials) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, ok := tokenFromRequest(r, SessionCookie); ok && token != "" {
		if claims, err := c.parse(ctx, token); err == nil {
			if err := c.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				slog.ErrorContext(ctx, "failed to revoke session", "error", err)
			}
		}
	}
	users.ClearCookie(w, SessionCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *Credentials) session(w http.ResponseWriter, r *http.Request) {
	user := users.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: userView{ID: user.ID, Email: user.PrimaryEmail()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
