package elenasport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/vglazkov/euro-oracle/internal/domain/match"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
	"github.com/vglazkov/euro-oracle/internal/platform/resilience"
	"github.com/vglazkov/euro-oracle/internal/usecase"
)

const (
	defaultBaseURL   = "https://football.elenasport.io/v2"
	defaultAuthURL   = "https://oauth2.elenasport.io/oauth2/token"
	defaultPageDelay = 2 * time.Second
	defaultMaxPages  = 100
	maxBodyBytes     = 6 << 20
)

var errEmptyToken = crerr.New("provider auth token is empty")

// Group assignment by provider stage id, fixed for the tournament.
// See https://football.elenasport.io/v2/seasons/797/stages.
var groupByStageID = map[int64]string{
	2512: "A",
	2513: "B",
	2514: "D",
	2515: "C",
	2516: "E",
	2517: "F",
}

var knockoutStageByID = map[int64]match.Stage{
	2518: match.StageRoundOf16,
	2519: match.StageQuarter,
	2520: match.StageSemi,
	2521: match.StageFinal,
}

type ClientConfig struct {
	HTTPClient          *http.Client
	BaseURL             string
	AuthURL             string
	APIToken            string
	Timeout             time.Duration
	PageDelay           time.Duration
	MaxPages            int
	CircuitFailureCount int
	CircuitOpenTimeout  time.Duration
	Logger              *logging.Logger
}

// Client pulls fixtures from the elenasport.io feed. Every call
// re-runs the client-credentials exchange; access tokens are
// short-lived and a sync run is rare enough that caching them buys
// nothing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authURL    string
	apiToken   string
	pageDelay  time.Duration
	maxPages   int
	logger     *logging.Logger
	breaker    *resilience.Breaker
	validate   *validator.Validate
	sleep      func(ctx context.Context) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	authURL := strings.TrimSpace(cfg.AuthURL)
	if authURL == "" {
		authURL = defaultAuthURL
	}
	pageDelay := cfg.PageDelay
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		authURL:    authURL,
		apiToken:   strings.TrimSpace(cfg.APIToken),
		pageDelay:  pageDelay,
		maxPages:   maxPages,
		logger:     logger,
		breaker:    resilience.NewBreaker(cfg.CircuitFailureCount, cfg.CircuitOpenTimeout),
		validate:   validator.New(),
	}
	c.sleep = c.sleepBetweenPages
	return c
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

type fixturePayload struct {
	ID          int64  `json:"id" validate:"required"`
	IDStage     int64  `json:"idStage"`
	Round       int    `json:"round"`
	Date        string `json:"date" validate:"required"`
	Status      string `json:"status"`
	VenueName   string `json:"venueName"`
	IDHome      int64  `json:"idHome" validate:"required"`
	IDAway      int64  `json:"idAway" validate:"required"`
	HomeName    string `json:"homeName" validate:"required"`
	AwayName    string `json:"awayName" validate:"required"`
	HomeGoals90 *int   `json:"team_home_90min_goals"`
	AwayGoals90 *int   `json:"team_away_90min_goals"`
	HomeGoalsET *int   `json:"team_home_ET_goals"`
	AwayGoalsET *int   `json:"team_away_ET_goals"`
}

type paginationPayload struct {
	HasNextPage bool `json:"hasNextPage"`
}

type fixturesEnvelope struct {
	Data       *[]fixturePayload  `json:"data"`
	Pagination *paginationPayload `json:"pagination"`
}

// SeasonFixtures exchanges credentials, then walks every page of the
// season's fixture listing. A malformed page aborts the run; a page
// cap guards against a feed that never reports the last page.
func (c *Client) SeasonFixtures(ctx context.Context, seasonID int64) ([]usecase.ExternalFixture, error) {
	if seasonID <= 0 {
		return nil, fmt.Errorf("season id must be greater than zero")
	}

	accessToken, err := c.fetchAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtain access token: %w", err)
	}

	fixtures := make([]usecase.ExternalFixture, 0, 64)
	for page := 1; ; page++ {
		if page > c.maxPages {
			c.logger.WarnContext(ctx, "page cap reached, stopping pagination", "max_pages", c.maxPages)
			break
		}

		envelope, err := c.fetchFixturePage(ctx, accessToken, seasonID, page)
		if err != nil {
			return nil, fmt.Errorf("fetch fixtures page=%d: %w", page, err)
		}

		for _, payload := range *envelope.Data {
			fx, err := c.mapFixture(payload, seasonID)
			if err != nil {
				c.logger.WarnContext(ctx, "skip malformed fixture",
					"fixture_id", payload.ID,
					"error", err,
				)
				continue
			}
			fixtures = append(fixtures, fx)
		}

		if !envelope.Pagination.HasNextPage {
			break
		}
		if err := c.sleep(ctx); err != nil {
			return nil, err
		}
	}

	c.logger.InfoContext(ctx, "fetched season fixtures", "season_id", seasonID, "fixtures", len(fixtures))
	return fixtures, nil
}

func (c *Client) fetchFixturePage(ctx context.Context, accessToken string, seasonID int64, page int) (fixturesEnvelope, error) {
	fullURL := fmt.Sprintf("%s/seasons/%d/fixtures?page=%d", c.baseURL, seasonID, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fixturesEnvelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	raw, err := c.execute(req, accessToken)
	if err != nil {
		return fixturesEnvelope{}, err
	}

	var envelope fixturesEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fixturesEnvelope{}, crerr.Wrapf(err, "decode fixtures payload")
	}
	if envelope.Data == nil {
		return fixturesEnvelope{}, crerr.Newf("missing data field in response: %s", abbreviate(raw))
	}
	if envelope.Pagination == nil {
		return fixturesEnvelope{}, crerr.Newf("missing pagination field in response: %s", abbreviate(raw))
	}
	return envelope, nil
}

func (c *Client) fetchAccessToken(ctx context.Context) (string, error) {
	if c.apiToken == "" {
		return "", errEmptyToken
	}

	body := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, body)
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+c.apiToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.execute(req, "")
	if err != nil {
		return "", err
	}

	var payload tokenPayload
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return "", crerr.Wrapf(err, "decode token payload")
	}
	if payload.Error != "" {
		return "", crerr.Newf("credential exchange rejected: %s", payload.Error)
	}
	if payload.AccessToken == "" {
		return "", crerr.Newf("missing access token field in response: %s", abbreviate(raw))
	}
	return payload.AccessToken, nil
}

// execute runs one request through the circuit breaker and returns the
// response body of a 2xx answer.
func (c *Client) execute(req *http.Request, secret string) ([]byte, error) {
	var raw []byte
	err := c.breaker.Do(func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return crerr.Newf("send request: %s", sanitize(err.Error(), c.apiToken, secret))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return crerr.Wrapf(err, "read response body")
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return crerr.Newf("provider status=%d body=%s", resp.StatusCode, abbreviate(body))
		}
		raw = body
		return nil
	})
	if crerr.Is(err, resilience.ErrBreakerOpen) {
		return nil, fmt.Errorf("%w: fixture feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) sleepBetweenPages(ctx context.Context) error {
	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) mapFixture(payload fixturePayload, seasonID int64) (usecase.ExternalFixture, error) {
	if err := c.validate.Struct(payload); err != nil {
		return usecase.ExternalFixture{}, fmt.Errorf("validate fixture payload: %w", err)
	}
	startAt, err := parseFixtureDate(payload.Date)
	if err != nil {
		return usecase.ExternalFixture{}, fmt.Errorf("parse fixture date %q: %w", payload.Date, err)
	}

	fx := usecase.ExternalFixture{
		ExternalID: payload.ID,
		SeasonID:   seasonID,
		Stage:      stageFor(payload.IDStage, payload.Round),
		Group:      groupByStageID[payload.IDStage],
		StartAt:    startAt,
		Status:     payload.Status,
		Venue:      payload.VenueName,
		HomeTeam:   usecase.ExternalTeam{ExternalID: payload.IDHome, Name: payload.HomeName},
		AwayTeam:   usecase.ExternalTeam{ExternalID: payload.IDAway, Name: payload.AwayName},
	}
	fx.HomeScore90 = payload.HomeGoals90
	fx.AwayScore90 = payload.AwayGoals90
	fx.HomeScoreTotal = totalGoals(payload.HomeGoals90, payload.HomeGoalsET)
	fx.AwayScoreTotal = totalGoals(payload.AwayGoals90, payload.AwayGoalsET)
	return fx, nil
}

// stageFor resolves the tournament phase: knockout stages have
// dedicated stage ids, group-phase fixtures carry a round number.
func stageFor(stageID int64, round int) match.Stage {
	if stage, ok := knockoutStageByID[stageID]; ok {
		return stage
	}
	if stage, ok := match.GroupStageForRound(round); ok {
		return stage
	}
	return 0
}

func totalGoals(regular, extra *int) *int {
	if regular == nil {
		return nil
	}
	total := *regular
	if extra != nil {
		total += *extra
	}
	return &total
}

func parseFixtureDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date layout")
}

func abbreviate(raw []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

func sanitize(value string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return value
}
