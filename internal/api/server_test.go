package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"multidist/internal/address"
	"multidist/internal/config"
	"multidist/internal/ledger"
	"multidist/internal/metrics"
	"multidist/internal/testutil"
)

type apiFixture struct {
	server       *Server
	collection   *ledger.Collection
	distribution *ledger.Distribution
	user         solana.PublicKey
}

// newAPIFixture builds a collection with cap 1000, a 500 token deposit and a
// distribution holding 100 reward tokens.
func newAPIFixture(t *testing.T, cfg config.APIConfig) *apiFixture {
	t.Helper()
	ctx := context.Background()
	l := testutil.NewTestLedger(t)

	authority := testutil.NewKey()
	user := testutil.NewKey()
	base := l.NewMint(t, authority)
	reward := l.NewMint(t, authority)
	l.Fund(t, base, authority, user, 500)
	l.Fund(t, reward, authority, authority, 100)

	c, err := l.InitCollection(ctx, ledger.InitCollectionParams{
		Authority: authority, BaseMint: base, MaxCollectableTokens: 1000,
	})
	require.NoError(t, err)
	_, err = l.UserCommitToCollection(ctx, user, c.Address, 500)
	require.NoError(t, err)
	d, err := l.InitDistribution(ctx, authority, c.Address, reward)
	require.NoError(t, err)
	d, err = l.AddDistributionTokens(ctx, authority, d.Address, 100)
	require.NoError(t, err)
	c, err = l.GetCollection(ctx, c.Address)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	logger := slog.New(slog.DiscardHandler)

	return &apiFixture{
		server:       NewServer(l.Service, cfg, logger, collector, reg),
		collection:   c,
		distribution: d,
		user:         user,
	}
}

func (f *apiFixture) get(t *testing.T, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_Routes(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})
	c := f.collection.Address.String()

	t.Run("healthz", func(t *testing.T) {
		rec := f.get(t, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"status":"ok","program_id":"`+address.DefaultProgramID.String()+`"}`, rec.Body.String())
	})

	t.Run("collection", func(t *testing.T) {
		rec := f.get(t, "/api/collections/"+c, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[collectionView](t, rec)
		require.Equal(t, c, v.Address)
		require.Equal(t, uint64(1000), v.MaxCollectableTokens)
		require.Equal(t, uint64(500), v.LifetimeTokensCollected)
		require.Equal(t, uint64(500), v.Remaining)
		require.False(t, v.BurnOnCommit)
	})

	t.Run("distributions", func(t *testing.T) {
		rec := f.get(t, "/api/collections/"+c+"/distributions", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[[]distributionView](t, rec)
		require.Len(t, v, 1)
		require.Equal(t, f.distribution.Address.String(), v[0].Address)
		require.Equal(t, uint64(100), v[0].Outstanding)
	})

	t.Run("distribution", func(t *testing.T) {
		rec := f.get(t, "/api/distributions/"+f.distribution.Address.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[distributionView](t, rec)
		require.Equal(t, c, v.Collection)
		require.Equal(t, uint64(100), v.LifetimeDepositedTokens)
	})

	t.Run("position", func(t *testing.T) {
		rec := f.get(t, "/api/collections/"+c+"/positions/"+f.user.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[positionView](t, rec)
		require.Equal(t, uint64(500), v.Deposited)
		require.Len(t, v.Claims, 1)
		require.Equal(t, claimView{
			Distribution: f.distribution.Address.String(),
			RewardMint:   f.distribution.RewardMint.String(),
			Entitlement:  50,
			Claimable:    50,
		}, v.Claims[0])
	})

	t.Run("position of a stranger", func(t *testing.T) {
		rec := f.get(t, "/api/collections/"+c+"/positions/"+testutil.NewKey().String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[positionView](t, rec)
		require.Zero(t, v.Deposited)
		require.Zero(t, v.Claims[0].Claimable)
	})

	t.Run("audit", func(t *testing.T) {
		rec := f.get(t, "/api/collections/"+c+"/audit", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		v := decode[auditView](t, rec)
		require.True(t, v.OK)
		require.Empty(t, v.Violations)
		require.Equal(t, uint64(500), v.SumDeposited)
		require.Equal(t, uint64(500), v.ReceiptSupply)
		require.Equal(t, uint64(500), v.VaultBalance)
	})
}

func TestServer_Errors(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{"unknown collection", "/api/collections/" + testutil.NewKey().String(), http.StatusNotFound, "NotFound"},
		{"unknown distribution", "/api/distributions/" + testutil.NewKey().String(), http.StatusNotFound, "NotFound"},
		{"audit of unknown collection", "/api/collections/" + testutil.NewKey().String() + "/audit", http.StatusNotFound, "NotFound"},
		{"malformed address", "/api/collections/not-an-address", http.StatusBadRequest, "InvalidArgument"},
		{"malformed user", "/api/collections/" + f.collection.Address.String() + "/positions/0OIl", http.StatusBadRequest, "InvalidArgument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.get(t, tt.path, nil)
			require.Equal(t, tt.wantStatus, rec.Code)
			v := decode[errorResponse](t, rec)
			require.Equal(t, tt.wantError, v.Error)
			require.NotEmpty(t, v.Message)
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{})

	f.get(t, "/api/collections/"+f.collection.Address.String(), nil)
	rec := f.get(t, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, `multidist_api_http_requests_total{method="GET",path="/api/collections/{collection}`)
	require.NotContains(t, body, f.collection.Address.String())
	require.Contains(t, body, "multidist_api_http_requests_in_flight")
}

func TestServer_RateLimit(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{RateLimitPerMinute: 1})
	path := "/api/collections/" + f.collection.Address.String()

	require.Equal(t, http.StatusOK, f.get(t, path, nil).Code)
	rec := f.get(t, path, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "60", rec.Header().Get("Retry-After"))

	// Health checks are not limited.
	require.Equal(t, http.StatusOK, f.get(t, "/healthz", nil).Code)
}

func TestServer_CORS(t *testing.T) {
	f := newAPIFixture(t, config.APIConfig{CORSOrigins: []string{"https://dash.example.com"}})
	path := "/api/collections/" + f.collection.Address.String()

	rec := f.get(t, path, http.Header{"Origin": {"https://dash.example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.get(t, path, http.Header{"Origin": {"https://evil.example.com"}})
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
}
