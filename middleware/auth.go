package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/clerk/clerk-sdk-go/v2/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/profile"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier turns a bearer token into the caller's session.
type Verifier interface {
	Verify(ctx context.Context, token string) (session.Session, error)
}

type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*profile.Profile, error)
}

type ClerkProfileLookup interface {
	GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
}

// SupabaseClaims is the subset of a Supabase access token the API reads.
type SupabaseClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwtv5.RegisteredClaims
}

// SupabaseVerifier checks HS256 access tokens signed with the project's JWT secret.
type SupabaseVerifier struct {
	secret []byte
}

func NewSupabaseVerifier(secret string) *SupabaseVerifier {
	return &SupabaseVerifier{secret: []byte(secret)}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (session.Session, error) {
	claims := &SupabaseClaims{}
	parsed, err := jwtv5.ParseWithClaims(token, claims, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwtv5.WithExpirationRequired())
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return session.Session{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return session.Session{UserID: userID, Email: claims.Email}, nil
}

// ClerkVerifier checks Clerk session tokens. clerk.SetKey must run first.
// Accounts without a linked profile get a stable id derived from the Clerk subject.
type ClerkVerifier struct {
	profiles ClerkProfileLookup
	verify   func(ctx context.Context, token string) (string, error)
}

func NewClerkVerifier(profiles ClerkProfileLookup) *ClerkVerifier {
	return &ClerkVerifier{
		profiles: profiles,
		verify: func(ctx context.Context, token string) (string, error) {
			claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
			if err != nil {
				return "", err
			}
			return claims.Subject, nil
		},
	}
}

// ClerkUserID maps a Clerk subject to the profile id used when no profile row links it yet.
func ClerkUserID(clerkID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("clerk:"+clerkID))
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (session.Session, error) {
	clerkID, err := v.verify(ctx, token)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p, err := v.profiles.GetProfileByClerkID(ctx, clerkID)
	switch {
	case err == nil:
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		return session.Session{UserID: p.ID, Email: email}, nil
	case errors.Is(err, storage.ErrNotFound):
		return session.Session{UserID: ClerkUserID(clerkID)}, nil
	default:
		return session.Session{}, fmt.Errorf("failed to resolve clerk user: %w", err)
	}
}

// ensuredCacheSize caps how many recently seen users skip the EnsureProfile write.
const ensuredCacheSize = 10000

// Authenticator validates the caller and makes sure a profile row exists for them.
type Authenticator struct {
	verifier Verifier
	profiles ProfileEnsurer
	ensured  *lru.Cache[uuid.UUID, struct{}]
}

func NewAuthenticator(verifier Verifier, profiles ProfileEnsurer) *Authenticator {
	return newAuthenticator(verifier, profiles, ensuredCacheSize)
}

func newAuthenticator(verifier Verifier, profiles ProfileEnsurer, cacheSize int) *Authenticator {
	ensured, err := lru.New[uuid.UUID, struct{}](cacheSize)
	if err != nil {
		panic(fmt.Sprintf("auth: invalid ensured cache size %d", cacheSize))
	}
	return &Authenticator{verifier: verifier, profiles: profiles, ensured: ensured}
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request, token string, next http.Handler) {
	sess, err := a.verifier.Verify(r.Context(), token)
	if err != nil {
		logging.Log.WithError(err).Debug("Auth: token verification failed")
		if errors.Is(err, ErrInvalidToken) {
			respondWithError(w, http.StatusUnauthorized, "Invalid token")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Could not authenticate user")
		}
		return
	}

	if _, done := a.ensured.Get(sess.UserID); !done && a.profiles != nil {
		if _, err := a.profiles.EnsureProfile(r.Context(), sess.UserID, sess.Email); err != nil {
			logging.WithUser(sess.UserID.String()).WithError(err).Error("Auth: failed to ensure profile")
			respondWithError(w, http.StatusInternalServerError, "Could not load user profile")
			return
		}
		a.ensured.Add(sess.UserID, struct{}{})
	}

	next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
}

// Middleware requires an "Authorization: Bearer <token>" header.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader || token == "" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization format. Use 'Bearer <token>'")
			return
		}

		a.authenticate(w, r, token, next)
	})
}

// QueryTokenMiddleware also accepts ?access_token= since browsers cannot set
// headers on a websocket handshake.
func (a *Authenticator) QueryTokenMiddleware(next http.Handler) http.Handler {
	header := a.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("access_token"); token != "" {
			a.authenticate(w, r, token, next)
			return
		}
		header.ServeHTTP(w, r)
	})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(fmt.Sprintf(`{"error": "%s"}`, message)))
}
