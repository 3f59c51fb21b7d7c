package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"chefai/internal/users"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

const clerkSessionCookie = "__session"

type clerkClient struct {
	storage *users.Storage
	// emails is swapped in tests to avoid calling the Clerk API.
	emails func(ctx context.Context, clerkUserID string) ([]string, error)
}

var _ AuthClient = (*clerkClient)(nil)

func NewClerkClient(secretKey string, storage *users.Storage) (*clerkClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("clerk secret key is required")
	}

	// Set the global Clerk secret key
	clerk.SetKey(secretKey)

	return &clerkClient{
		storage: storage,
		emails:  clerkEmails,
	}, nil
}

// clerkEmails returns the user's addresses with the primary one first.
func clerkEmails(ctx context.Context, clerkUserID string) ([]string, error) {
	clerkUser, err := user.Get(ctx, clerkUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clerk user: %w", err)
	}

	var primary string
	var others []string
	for _, emailAddr := range clerkUser.EmailAddresses {
		if emailAddr == nil || emailAddr.EmailAddress == "" {
			continue
		}
		if clerkUser.PrimaryEmailAddressID != nil && emailAddr.ID == *clerkUser.PrimaryEmailAddressID {
			primary = emailAddr.EmailAddress
			continue
		}
		others = append(others, emailAddr.EmailAddress)
	}
	if primary == "" {
		return nil, fmt.Errorf("no primary email found for clerk user %s", clerkUserID)
	}
	return append([]string{primary}, others...), nil
}

func (c *clerkClient) resolve(ctx context.Context, clerkUserID string) (*users.User, error) {
	u, err := c.storage.GetByClerkID(ctx, clerkUserID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}
	emails, err := c.emails(ctx, clerkUserID)
	if err != nil {
		return nil, err
	}
	return c.storage.FindOrCreateByID(ctx, clerkUserID, emails)
}

func (c *clerkClient) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := clerk.SessionClaimsFromContext(r.Context())
		if !ok || claims == nil {
			next.ServeHTTP(w, r)
			return
		}
		u, err := c.resolve(r.Context(), claims.Subject)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load clerk user", "clerk_user_id", claims.Subject, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(users.ContextWithUser(r.Context(), u)))
	})
}

// WithAuthHTTP verifies the Clerk session from the Authorization header or
// the __session cookie. Failed verification continues anonymously.
func (c *clerkClient) WithAuthHTTP(handler http.Handler) http.Handler {
	inner := c.withUser(handler)
	verify := clerkhttp.WithHeaderAuthorization(clerkhttp.AuthorizationFailureHandler(handler))(inner)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if cookie, err := r.Cookie(clerkSessionCookie); err == nil && cookie.Value != "" {
				r.Header.Set("Authorization", "Bearer "+cookie.Value)
			}
		}
		verify.ServeHTTP(w, r)
	})
}

func (c *clerkClient) logout(w http.ResponseWriter, r *http.Request) {
	users.ClearCookie(w, clerkSessionCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (c *clerkClient) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/logout", c.logout)
}
