package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/kidsdiary/internal/client/metrics"
	"github.com/dmitrijs2005/kidsdiary/internal/client/models"
	"github.com/dmitrijs2005/kidsdiary/internal/logging"
)

const (
	apiKeyHeader = "X-API-Key"

	pathHealth   = "/v1/health"
	pathEntries  = "/v1/diary-entries"
	pathEntry    = "/v1/diary-entries/{id}"
	pathAnalyze  = "/v1/analyze-photo"
	maxErrorBody = 256
)

type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RetryCount        int
	RetryBaseInterval time.Duration
	Logger            logging.Logger
}

type HTTPClient struct {
	http         *resty.Client
	retryCount   int
	baseInterval time.Duration
	log          logging.Logger
}

func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryBaseInterval <= 0 {
		opts.RetryBaseInterval = time.Second
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}

	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout)
	if opts.APIKey != "" {
		c.SetHeader(apiKeyHeader, opts.APIKey)
	}

	return &HTTPClient{
		http:         c,
		retryCount:   opts.RetryCount,
		baseInterval: opts.RetryBaseInterval,
		log:          opts.Logger.With("component", "gateway"),
	}
}

func (c *HTTPClient) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(pathHealth)
	})
	return err
}

func (c *HTTPClient) List(ctx context.Context) ([]models.Entry, error) {
	body, err := c.do(ctx, "list", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(pathEntries)
	})
	if err != nil {
		return nil, err
	}

	var entries []models.Entry
	if err := decode(body, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Normalize()
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	return entries, nil
}

func (c *HTTPClient) Create(ctx context.Context, req models.CreateRequest) (models.Entry, error) {
	body, err := c.do(ctx, "create", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(pathEntries)
	})
	if err != nil {
		return models.Entry{}, err
	}

	var e models.Entry
	if err := decode(body, &e); err != nil {
		return models.Entry{}, err
	}
	if e.ID == "" {
		return models.Entry{}, fmt.Errorf("%w: created entry has no id", ErrRemote)
	}
	e.Normalize()
	return e, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete", func(r *resty.Request) (*resty.Response, error) {
		return r.SetPathParam("id", id).Delete(pathEntry)
	})
	return err
}

func (c *HTTPClient) Analyze(ctx context.Context, req models.AnalyzeRequest) (models.AnalysisResult, error) {
	body, err := c.do(ctx, "analyze", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(req).Post(pathAnalyze)
	})
	if err != nil {
		return models.AnalysisResult{}, err
	}

	var res models.AnalysisResult
	if err := decode(body, &res); err != nil {
		return models.AnalysisResult{}, err
	}
	res.Normalize()
	return res, nil
}

// do sends a request built by send, retrying transient failures. It returns
// the body of the first 2xx response.
func (c *HTTPClient) do(ctx context.Context, op string, send func(*resty.Request) (*resty.Response, error)) ([]byte, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseInterval
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	var (
		body    []byte
		attempt int
	)
	err := backoff.Retry(func() error {
		attempt++
		resp, err := send(c.http.R().SetContext(ctx))
		if err != nil {
			err = fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			c.log.Debug(ctx, "gateway request failed", "op", op, "attempt", attempt, "error", err)
			return err
		}
		if err := mapStatus(resp); err != nil {
			if !Transient(err) {
				return backoff.Permanent(err)
			}
			c.log.Debug(ctx, "gateway request failed", "op", op, "attempt", attempt, "error", err)
			return err
		}
		body = resp.Body()
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.retryCount)), ctx))

	if err != nil && ctx.Err() != nil && !errors.Is(err, ErrUnavailable) {
		err = fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(op, metrics.Outcome(err)).Inc()
	if err != nil {
		c.log.Warn(ctx, "gateway request gave up", "op", op, "attempts", attempt, "error", err)
		return nil, err
	}
	return body, nil
}

func mapStatus(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}

	var sentinel error
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		sentinel = ErrUnauthorized
	case code == http.StatusNotFound:
		sentinel = ErrNotFound
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		sentinel = ErrBadRequest
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		sentinel = ErrUnavailable
	default:
		sentinel = ErrRemote
	}

	body := resp.String()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("%w: HTTP %d: %s", sentinel, code, body)
}

func decode(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrRemote, err)
	}
	return nil
}
