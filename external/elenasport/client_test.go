package elenasport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/usecase"
)

func newTestClient(t *testing.T, auth, api *httptest.Server) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		HTTPClient: api.Client(),
		BaseURL:    api.URL,
		AuthURL:    auth.URL + "/oauth2/token",
		APIToken:   "basic-secret",
		PageDelay:  time.Millisecond,
	})
}

func authServer(t *testing.T, tokenCalls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokenCalls != nil {
			tokenCalls.Add(1)
		}
		if r.Header.Get("Authorization") != "Basic basic-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid_client"}`)
			return
		}
		fmt.Fprint(w, `{"access_token":"bearer-token"}`)
	}))
}

func fixtureJSON(id int64) string {
	return fmt.Sprintf(`{
		"id": %d,
		"idStage": 2512,
		"round": 1,
		"date": "2021-06-11T19:00:00Z",
		"status": "notstarted",
		"venueName": "Stadio Olimpico",
		"idHome": 1,
		"idAway": 2,
		"homeName": "Turkey",
		"awayName": "Italy"
	}`, id)
}

func TestSeasonFixturesWalksEveryPage(t *testing.T) {
	auth := authServer(t, nil)
	defer auth.Close()

	var pages, bearers []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearers = append(bearers, r.Header.Get("Authorization"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		switch page {
		case "1":
			fmt.Fprintf(w, `{"data":[%s],"pagination":{"hasNextPage":true}}`, fixtureJSON(100))
		case "2":
			fmt.Fprintf(w, `{"data":[%s],"pagination":{"hasNextPage":true}}`, fixtureJSON(101))
		default:
			fmt.Fprintf(w, `{"data":[%s],"pagination":{"hasNextPage":false}}`, fixtureJSON(102))
		}
	}))
	defer api.Close()

	c := newTestClient(t, auth, api)
	sleeps := 0
	c.sleep = func(context.Context) error {
		sleeps++
		return nil
	}

	fixtures, err := c.SeasonFixtures(context.Background(), 797)
	require.NoError(t, err)
	require.Len(t, fixtures, 3)
	require.Equal(t, []string{"1", "2", "3"}, pages)
	require.Equal(t, []string{"Bearer bearer-token", "Bearer bearer-token", "Bearer bearer-token"}, bearers)
	require.Equal(t, 2, sleeps, "one delay between each pair of pages, none after the last")
	require.Equal(t, int64(100), fixtures[0].ExternalID)
	require.Equal(t, "A", fixtures[0].Group)
	require.Equal(t, match.StageGroupRound1, fixtures[0].Stage)
}

func TestSeasonFixturesExchangesCredentialsEveryRun(t *testing.T) {
	var tokenCalls atomic.Int32
	auth := authServer(t, &tokenCalls)
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[],"pagination":{"hasNextPage":false}}`)
	}))
	defer api.Close()

	c := newTestClient(t, auth, api)
	_, err := c.SeasonFixtures(context.Background(), 797)
	require.NoError(t, err)
	_, err = c.SeasonFixtures(context.Background(), 797)
	require.NoError(t, err)
	require.Equal(t, int32(2), tokenCalls.Load())
}

func TestSeasonFixturesRejectedCredentials(t *testing.T) {
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"error":"invalid_client"}`)
	}))
	defer auth.Close()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("fixtures endpoint must not be called without a token")
	}))
	defer api.Close()

	c := newTestClient(t, auth, api)
	_, err := c.SeasonFixtures(context.Background(), 797)
	require.ErrorContains(t, err, "invalid_client")
}

func TestSeasonFixturesAbortsOnMissingEnvelopeFields(t *testing.T) {
	auth := authServer(t, nil)
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer api.Close()

	c := newTestClient(t, auth, api)
	_, err := c.SeasonFixtures(context.Background(), 797)
	require.ErrorContains(t, err, "missing pagination field")
}

func TestSeasonFixturesSkipsMalformedFixture(t *testing.T) {
	auth := authServer(t, nil)
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Second fixture is missing required team fields.
		fmt.Fprintf(w, `{"data":[%s,{"id":200,"date":"2021-06-11T19:00:00Z"}],"pagination":{"hasNextPage":false}}`, fixtureJSON(100))
	}))
	defer api.Close()

	c := newTestClient(t, auth, api)
	fixtures, err := c.SeasonFixtures(context.Background(), 797)
	require.NoError(t, err)
	require.Len(t, fixtures, 1)
	require.Equal(t, int64(100), fixtures[0].ExternalID)
}

func TestSeasonFixturesBreakerOpensAfterRepeatedFailures(t *testing.T) {
	auth := authServer(t, nil)
	defer auth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer api.Close()

	c := NewClient(ClientConfig{
		HTTPClient:          api.Client(),
		BaseURL:             api.URL,
		AuthURL:             auth.URL,
		APIToken:            "basic-secret",
		PageDelay:           time.Millisecond,
		CircuitFailureCount: 1,
		CircuitOpenTimeout:  time.Minute,
	})

	_, err := c.SeasonFixtures(context.Background(), 797)
	require.ErrorContains(t, err, "provider status=502")

	_, err = c.SeasonFixtures(context.Background(), 797)
	require.True(t, errors.Is(err, usecase.ErrDependencyUnavailable), "got %v", err)
}

func TestMapFixtureTotalsIncludeExtraTime(t *testing.T) {
	c := NewClient(ClientConfig{APIToken: "x"})

	two, one := 2, 1
	payload := fixturePayload{
		ID:          300,
		IDStage:     2521,
		Date:        "2021-07-11T19:00:00Z",
		Status:      "finished",
		IDHome:      10,
		IDAway:      11,
		HomeName:    "Italy",
		AwayName:    "England",
		HomeGoals90: &one,
		AwayGoals90: &one,
		HomeGoalsET: &two,
	}

	fx, err := c.mapFixture(payload, 797)
	require.NoError(t, err)
	require.Equal(t, match.StageFinal, fx.Stage)
	require.Equal(t, 1, *fx.HomeScore90)
	require.Equal(t, 3, *fx.HomeScoreTotal)
	require.Equal(t, 1, *fx.AwayScoreTotal)
}

func TestStageForFallsBackToRound(t *testing.T) {
	require.Equal(t, match.StageRoundOf16, stageFor(2518, 0))
	require.Equal(t, match.StageGroupRound3, stageFor(9999, 3))
	require.Equal(t, match.Stage(0), stageFor(9999, 9))
}
