package auth

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const project = "aurora-test"

func signToken(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: key}, (&jose.SignerOptions{}).WithType("JWT"))
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	jws, err := signer.Sign(payload)
	require.NoError(t, err)
	raw, err := jws.CompactSerialize()
	require.NoError(t, err)
	return raw
}

func testVerifier(t *testing.T) (*FirebaseVerifier, *rsa.PrivateKey, time.Time) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	v := newFirebaseVerifier(project, keys, &oidc.Config{Now: func() time.Time { return now }})
	return v, key, now
}

func TestVerifySubject(t *testing.T) {
	v, key, now := testVerifier(t)
	raw := signToken(t, key, map[string]any{
		"iss": issuerPrefix + project,
		"aud": project,
		"sub": "firebase-uid-1",
		"iat": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	sub, err := v.VerifySubject(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", sub)
}

func TestVerifySubjectRejectsOtherProject(t *testing.T) {
	v, key, now := testVerifier(t)
	raw := signToken(t, key, map[string]any{
		"iss": issuerPrefix + "someone-else",
		"aud": "someone-else",
		"sub": "firebase-uid-1",
		"exp": now.Add(time.Hour).Unix(),
	})

	_, err := v.VerifySubject(context.Background(), raw)
	assert.Error(t, err)
}

func TestVerifySubjectRejectsExpired(t *testing.T) {
	v, key, now := testVerifier(t)
	raw := signToken(t, key, map[string]any{
		"iss": issuerPrefix + project,
		"aud": project,
		"sub": "firebase-uid-1",
		"exp": now.Add(-time.Hour).Unix(),
	})

	_, err := v.VerifySubject(context.Background(), raw)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	_, err := BearerToken(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Basic abc")
	_, err = BearerToken(r)
	assert.ErrorIs(t, err, ErrMissingToken)

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	tok, err := BearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}
