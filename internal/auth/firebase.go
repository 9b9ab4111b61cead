// Package auth verifies Firebase ID tokens presented by clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	issuerPrefix = "https://securetoken.google.com/"
	firebaseJWKS = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// ErrMissingToken is returned when no bearer token accompanies a request.
var ErrMissingToken = errors.New("missing bearer token")

// Verifier resolves a raw ID token to the identity provider's user id.
type Verifier interface {
	VerifySubject(ctx context.Context, rawToken string) (string, error)
}

// FirebaseVerifier checks signature, issuer, audience and expiry of Firebase
// ID tokens for one project.
type FirebaseVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewFirebaseVerifier fetches Google's signing keys lazily; ctx bounds the
// lifetime of that key fetcher, not a single call.
func NewFirebaseVerifier(ctx context.Context, projectID string) *FirebaseVerifier {
	return newFirebaseVerifier(projectID, oidc.NewRemoteKeySet(ctx, firebaseJWKS), nil)
}

func newFirebaseVerifier(projectID string, keys oidc.KeySet, cfg *oidc.Config) *FirebaseVerifier {
	if cfg == nil {
		cfg = &oidc.Config{}
	}
	cfg.ClientID = projectID
	return &FirebaseVerifier{verifier: oidc.NewVerifier(issuerPrefix+projectID, keys, cfg)}
}

// VerifySubject checks signature, issuer, audience and expiry, and returns the token subject.
func (f *FirebaseVerifier) VerifySubject(ctx context.Context, rawToken string) (string, error) {
	token, err := f.verifier.Verify(ctx, rawToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	if token.Subject == "" {
		return "", errors.New("verify id token: empty subject")
	}
	return token.Subject, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}
