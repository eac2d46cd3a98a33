package salute

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/xilidan/jazz/pkg/gen"
)

const (
	loginPath = "/v1/auth/login"

	// Subject claim the auth endpoint expects on every signed assertion.
	assertionSubject = "15eca6c5-fb2d-48f2-804a-f97e542ebd33"

	assertionTTL = time.Hour

	// The cached access token is kept for a fixed hour from the moment of
	// exchange, NOT from the token's own exp claim. This mirrors the
	// remote protocol's observed behavior; see DESIGN.md before changing.
	accessTokenTTL = 3600 * time.Second
)

// tokenSource owns the single cached access token slot. Reads of a live
// token take the fast path with zero network calls; concurrent refreshes
// collapse into one exchange via singleflight.
type tokenSource struct {
	cred       *Credential
	baseURL    string
	uuids      gen.UUIDGenerator
	log        *slog.Logger
	now        func() time.Time
	newSession func() *http.Client

	group singleflight.Group

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

func newTokenSource(cred *Credential, baseURL string, log *slog.Logger) *tokenSource {
	return &tokenSource{
		cred:       cred,
		baseURL:    baseURL,
		uuids:      gen.UUID(),
		log:        log,
		now:        time.Now,
		newSession: func() *http.Client { return &http.Client{} },
	}
}

// Token returns the cached access token while it is strictly before its
// recorded expiry, otherwise exchanges a fresh signed assertion for a new
// one. The returned token is valid at the moment of return only.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.value != "" && t.now().Before(t.expiresAt) {
		value := t.value
		t.mu.Unlock()
		return value, nil
	}
	t.mu.Unlock()

	value, err, _ := t.group.Do("access-token", func() (any, error) {
		// A refresh that completed while this caller waited on the
		// group already filled the slot.
		t.mu.Lock()
		if t.value != "" && t.now().Before(t.expiresAt) {
			value := t.value
			t.mu.Unlock()
			return value, nil
		}
		t.mu.Unlock()

		return t.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

func (t *tokenSource) refresh(ctx context.Context) (string, error) {
	t.log.Debug("refreshing access token", slog.String("project_id", t.cred.ProjectID))

	assertion, err := t.signAssertion()
	if err != nil {
		t.log.Error("failed to sign assertion", slog.String("error", err.Error()))
		return "", &AuthError{Reason: "failed to sign assertion", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+loginPath, nil)
	if err != nil {
		return "", &AuthError{Reason: "failed to build login request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+assertion)

	resp, err := t.newSession().Do(req)
	if err != nil {
		t.log.Error("login request failed", slog.String("error", err.Error()))
		return "", &AuthError{Reason: "login request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Reason: "failed to read login response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.log.Error("login rejected",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)))
		return "", &AuthError{Reason: "login rejected", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &AuthError{Reason: "unparsable login response", Err: err}
	}
	if out.Token == "" {
		return "", &AuthError{Reason: "login response has no token"}
	}

	expiresAt := t.now().Add(accessTokenTTL)

	t.mu.Lock()
	t.value = out.Token
	t.expiresAt = expiresAt
	t.mu.Unlock()

	t.log.Info("access token refreshed", slog.Time("expires_at", expiresAt))
	return out.Token, nil
}

// signAssertion builds the short-lived ES384 assertion exchanged at the
// login endpoint.
func (t *tokenSource) signAssertion() (string, error) {
	now := t.now().UTC()

	claims := jwt.MapClaims{
		"iat":          jwt.NewNumericDate(now),
		"exp":          jwt.NewNumericDate(now.Add(assertionTTL)),
		"jti":          t.uuids.Next().String(),
		"sdkProjectId": t.cred.ProjectID,
		"sub":          assertionSubject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES384, claims)
	token.Header["kid"] = t.cred.KeyID

	return token.SignedString(t.cred.signKey)
}
