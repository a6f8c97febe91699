package cipapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/negneg-eq-submitter/internal/domain"
)

const betaHost = "https://cipapi-beta.genomicsengland.co.uk"

func newBetaClient(tokens TokenCache) *Client {
	return NewClient(domain.CIPAPIConfig{
		BaseURL:     "https://cipapi.genomicsengland.nhs.uk/api/2/",
		BetaBaseURL: betaHost + "/api/2/",
		Testing:     true,
		RateLimit:   1000,
		ReportsV6:   true,
	}, domain.AuthConfig{Username: "jbloggs", Password: "secret"}, tokens, testLogger())
}

func TestAuthenticate_ExchangesCredentialsForToken(t *testing.T) {
	defer gock.Off()

	gock.New(betaHost).
		Post("/api/2/get-token/").
		MatchType("json").
		JSON(map[string]string{"username": "jbloggs", "password": "secret"}).
		Reply(200).
		JSON(map[string]string{"token": "xyz"})
	gock.New(betaHost).
		Get("/api/2/interpretation-request/12345/2/").
		MatchParam("reports_v6", "true").
		MatchHeader("Authorization", "^JWT xyz$").
		Reply(200).
		BodyString(`{"case_id": "12345-2", "assembly": "GRCh37"}`)

	client := newBetaClient(nil)
	require.NoError(t, client.Authenticate(context.Background()))

	ir, err := client.GetInterpretationRequest(context.Background(), domain.CaseReference{RequestID: "12345", RequestVersion: "2"})
	require.NoError(t, err)
	assert.Equal(t, "GRCh37", ir.Assembly)
	assert.True(t, gock.IsDone())
}

func TestAuthenticate_RejectedCredentials(t *testing.T) {
	defer gock.Off()

	gock.New(betaHost).Post("/api/2/get-token/").Reply(401).BodyString(`{"detail": "bad credentials"}`)

	client := newBetaClient(nil)
	err := client.Authenticate(context.Background())
	require.Error(t, err)

	var e *domain.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, domain.ErrAuthentication, e.Code)
	assert.Contains(t, err.Error(), "Authentication failed: response status code != 200")
	assert.True(t, gock.IsDone())
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	defer gock.Off()

	gock.New(betaHost).Post("/api/2/get-token/").Reply(200).JSON(map[string]string{})

	client := newBetaClient(nil)
	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindTransport, domain.KindOf(err))
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	client := NewClient(domain.CIPAPIConfig{BaseURL: betaHost + "/api/2/"}, domain.AuthConfig{}, nil, testLogger())

	err := client.Authenticate(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindConfig, domain.KindOf(err))
}

func TestAuthenticate_ReusesCachedToken(t *testing.T) {
	defer gock.Off()

	gock.New(betaHost).Post("/api/2/get-token/").Times(1).Reply(200).JSON(map[string]string{"token": "cached"})
	gock.New(betaHost).
		Get("/api/2/interpretation-request/1/1/").
		MatchHeader("Authorization", "^JWT cached$").
		Reply(200).
		BodyString(`{"case_id": "1-1", "assembly": "GRCh38"}`)

	cache := NewMemoryTokenCache(4, 0)
	ctx := context.Background()

	require.NoError(t, newBetaClient(cache).Authenticate(ctx))

	second := newBetaClient(cache)
	require.NoError(t, second.Authenticate(ctx))
	_, err := second.GetInterpretationRequest(ctx, domain.CaseReference{RequestID: "1", RequestVersion: "1"})
	require.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestAuthenticate_RejectedCachedTokenIsEvicted(t *testing.T) {
	defer gock.Off()

	gock.New(betaHost).Get("/api/2/interpretation-request/1/1/").Reply(401)

	cache := NewMemoryTokenCache(4, 0)
	ctx := context.Background()
	client := newBetaClient(cache)
	key := tokenKey(client.BaseURL(), "jbloggs")
	require.NoError(t, cache.Set(ctx, key, "stale"))

	require.NoError(t, client.Authenticate(ctx))
	_, err := client.GetInterpretationRequest(ctx, domain.CaseReference{RequestID: "1", RequestVersion: "1"})
	require.Error(t, err)

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
