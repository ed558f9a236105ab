package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/formulatree/internal/core/db"
)

const testSecretID = "0190a1b2c3d4e5f60718293a4b5c6d7e"

var testSecret = bytes.Repeat([]byte{7}, 32)

type fixture struct {
	auth     *Authenticator
	store    *db.RuleSetStore
	key      string
	keyID    string
	tenantID string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn, err := db.Open("sqlite://" + filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(conn))

	queries, err := db.LoadQueries(conn)
	require.NoError(t, err)
	store := db.NewRuleSetStore(queries)

	ctx := context.Background()
	tenant, err := store.EnsureTenant(ctx, "acme")
	require.NoError(t, err)

	key, hash, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)
	keyID, err := store.CreateAPIKey(ctx, tenant.ID, "test", testSecretID, hash)
	require.NoError(t, err)

	return fixture{
		auth:     NewAuthenticator(map[string][]byte{testSecretID: testSecret}, queries),
		store:    store,
		key:      key,
		keyID:    keyID,
		tenantID: tenant.ID,
	}
}

func TestParseAPIKey(t *testing.T) {
	random := strings.Repeat("ab", 32)
	valid := FormatAPIKey(testSecretID, random)

	secretID, data, err := ParseAPIKey(valid)
	require.NoError(t, err)
	assert.Equal(t, testSecretID, secretID)
	assert.Equal(t, random, data)
	assert.Len(t, valid, 103)

	bad := []string{
		"",
		"xx-v1-" + testSecretID + "-" + random,
		"ft-v2-" + testSecretID + "-" + random,
		"ft-v1-" + testSecretID[:31] + "-" + random,
		"ft-v1-" + testSecretID + "-" + random[:63],
		"ft-v1-" + strings.ToUpper(testSecretID) + "-" + random,
		"ft-v1-" + testSecretID + "-" + random + "-extra",
	}
	for _, key := range bad {
		_, _, err := ParseAPIKey(key)
		assert.ErrorIs(t, err, ErrInvalidKeyFormat, key)
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, hash, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)

	secretID, _, err := ParseAPIKey(key)
	require.NoError(t, err)
	assert.Equal(t, testSecretID, secretID)
	assert.True(t, VerifyHMAC(hash, ComputeHMAC(testSecret, key)))

	other, _, err := GenerateAPIKey(testSecretID, testSecret)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, _, err = GenerateAPIKey("short", testSecret)
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenantID, err := f.auth.Authenticate(ctx, f.key)
	require.NoError(t, err)
	assert.Equal(t, f.tenantID, tenantID)

	// Repeat use inside the throttle window still succeeds.
	_, err = f.auth.Authenticate(ctx, f.key)
	require.NoError(t, err)

	_, err = f.auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	unknown := FormatAPIKey(strings.Repeat("f", 32), strings.Repeat("0", 64))
	_, err = f.auth.Authenticate(ctx, unknown)
	assert.ErrorIs(t, err, ErrUnknownKey)

	forged := FormatAPIKey(testSecretID, strings.Repeat("0", 64))
	_, err = f.auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidKey)

	require.NoError(t, f.store.RevokeAPIKey(ctx, f.keyID))
	_, err = f.auth.Authenticate(ctx, f.key)
	assert.ErrorIs(t, err, ErrKeyRevoked)
}

func TestCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		http int
	}{
		{ErrMissingKey, codes.Unauthenticated, http.StatusUnauthorized},
		{ErrInvalidKey, codes.Unauthenticated, http.StatusUnauthorized},
		{ErrKeyRevoked, codes.PermissionDenied, http.StatusForbidden},
		{ErrUnavailable, codes.Unavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, Code(tt.err), tt.err.Error())
		assert.Equal(t, tt.http, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestUnaryInterceptor(t *testing.T) {
	f := newFixture(t)
	interceptor := f.auth.UnaryInterceptor("/grpc.health.v1.Health/Check")

	var seen string
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = TenantIDFromContext(ctx)
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/formulatree.v1.FormulaService/Preview"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", f.key))
	resp, err := interceptor(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, f.tenantID, seen)

	_, err = interceptor(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.MD{})
	_, err = interceptor(ctx, nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	seen = "unset"
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.Empty(t, seen)

	require.NoError(t, f.store.RevokeAPIKey(context.Background(), f.keyID))
	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", f.key))
	_, err = interceptor(ctx, nil, info, handler)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestMiddleware(t *testing.T) {
	f := newFixture(t)
	h := f.auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(TenantIDFromContext(r.Context())))
	}))

	tests := []struct {
		name   string
		key    string
		status int
		body   string
	}{
		{"valid", f.key, http.StatusOK, f.tenantID},
		{"missing", "", http.StatusUnauthorized, "API key required"},
		{"malformed", "nope", http.StatusUnauthorized, "invalid API key format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/rulesets", nil)
			if tt.key != "" {
				req.Header.Set(HeaderAPIKey, tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}
