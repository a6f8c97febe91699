// Package cipapi is a client for the CIP-API case-management service.
package cipapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/negneg-eq-submitter/internal/domain"
)

// Step names used in logs and errors
const (
	StepAuthenticate          = "Authentication"
	StepInterpretationRequest = "Interpretation request download"
	StepClinicalReport        = "Summary of Findings creation"
	StepExitQuestionnaire     = "Exit Questionnaire upload"
)

const maxErrorBody = 512

// Client handles interactions with the CIP-API
type Client struct {
	baseURL    string
	reportsV6  bool
	expected   domain.ExpectedStatusConfig
	auth       domain.AuthConfig
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	tokens     TokenCache
	token      string
	fromCache  bool
	logger     *logrus.Logger
}

var _ domain.CaseAPI = (*Client)(nil)

// NewClient creates a new CIP-API client against config's active base URL
func NewClient(config domain.CIPAPIConfig, auth domain.AuthConfig, tokens TokenCache, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}
	if tokens == nil {
		tokens = NoopTokenCache{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	config.Expected = withDefaultStatuses(config.Expected)

	baseURL := config.ActiveBaseURL()
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &Client{
		baseURL:   baseURL,
		reportsV6: config.ReportsV6,
		expected:  config.Expected,
		auth:      auth,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   newBreaker(config.CircuitBreaker, logger),
		tokens:    tokens,
		logger:    logger,
	}
}

func withDefaultStatuses(s domain.ExpectedStatusConfig) domain.ExpectedStatusConfig {
	if s.Token == 0 {
		s.Token = http.StatusOK
	}
	if s.InterpretationRequest == 0 {
		s.InterpretationRequest = http.StatusOK
	}
	if s.ClinicalReport == 0 {
		s.ClinicalReport = http.StatusCreated
	}
	if s.ExitQuestionnaire == 0 {
		s.ExitQuestionnaire = http.StatusOK
	}
	return s
}

// BaseURL returns the versioned base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetInterpretationRequest downloads the case document for ref
func (c *Client) GetInterpretationRequest(ctx context.Context, ref domain.CaseReference) (*domain.InterpretationRequest, error) {
	path := fmt.Sprintf("interpretation-request/%s/%s/", ref.RequestID, ref.RequestVersion)

	body, err := c.do(ctx, StepInterpretationRequest, http.MethodGet, path, nil, c.expected.InterpretationRequest)
	if err != nil {
		return nil, err
	}

	var ir domain.InterpretationRequest
	if err := json.Unmarshal(body, &ir); err != nil {
		return nil, domain.NewDataError("failed to parse interpretation request", err)
	}
	return &ir, nil
}

// PostClinicalReport uploads the summary of findings for caseID. The
// returned clinical report version defaults to 1 when the response does
// not state one.
func (c *Client) PostClinicalReport(ctx context.Context, caseID string, report *domain.ClinicalReport) (int, error) {
	path := fmt.Sprintf("clinical-report/genomics_england_tiering/raredisease/%s/", url.PathEscape(caseID))

	body, err := c.do(ctx, StepClinicalReport, http.MethodPost, path, report, c.expected.ClinicalReport)
	if err != nil {
		return 0, err
	}

	var created struct {
		ClinicalReportVersion int `json:"clinical_report_version"`
	}
	if len(body) > 0 && json.Unmarshal(body, &created) == nil && created.ClinicalReportVersion > 0 {
		return created.ClinicalReportVersion, nil
	}
	return 1, nil
}

// PutExitQuestionnaire uploads the exit questionnaire against a clinical report version
func (c *Client) PutExitQuestionnaire(ctx context.Context, ref domain.CaseReference, reportVersion int, eq *domain.ExitQuestionnaire) error {
	path := fmt.Sprintf("exit-questionnaire/%s/%s/%d/", ref.RequestID, ref.RequestVersion, reportVersion)

	_, err := c.do(ctx, StepExitQuestionnaire, http.MethodPut, path, eq, c.expected.ExitQuestionnaire)
	return err
}

// do sends one request through the rate limiter and circuit breaker and
// checks the response status.
func (c *Client) do(ctx context.Context, step, method, path string, payload interface{}, expected int) ([]byte, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, domain.NewTransportError(step+": rate limit wait failed", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, step, method, path, payload, expected)
	})
	if err != nil {
		if IsUnavailable(err) {
			return nil, domain.NewTransportError(step+": CIP-API unavailable (circuit breaker open)", err)
		}
		if isUnauthorized(err) && c.fromCache {
			c.forgetToken(ctx)
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (c *Client) roundTrip(ctx context.Context, step, method, path string, payload interface{}, expected int) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", step, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", step, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "JWT "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(step+" request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransportError(step+": failed to read response", err)
	}

	c.logger.WithFields(logrus.Fields{
		"step":        step,
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("CIP-API request completed")

	if resp.StatusCode != expected {
		// The body usually carries the server's reason for rejecting a record
		c.logger.WithFields(logrus.Fields{
			"step":            step,
			"status_code":     resp.StatusCode,
			"expected_status": expected,
			"response_body":   truncate(body),
		}).Warn("CIP-API returned an unexpected status")
		return nil, domain.NewStatusError(step, expected, resp.StatusCode, truncate(body))
	}
	return body, nil
}

func (c *Client) endpoint(path string) string {
	u := c.baseURL + strings.TrimPrefix(path, "/")
	if c.reportsV6 && path != tokenPath {
		u += "?reports_v6=true"
	}
	return u
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}

func isUnauthorized(err error) bool {
	var statusErr *domain.StatusError
	return errors.As(err, &statusErr) && statusErr.Actual == http.StatusUnauthorized
}
