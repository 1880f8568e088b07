package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/config"
	"github.com/ButyrinIA/spacetraveling/internal/metrics"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

const maxBatchKeys = 100

type Client struct {
	endpoint      *url.URL
	accessToken   string
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxTries      uint
	retryInterval time.Duration
	logger        *slog.Logger
}

type apiInfo struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

type searchResponse struct {
	NextPage *string            `json:"next_page"`
	Results  []models.RawRecord `json:"results"`
}

func New(cfg config.PrismicConfig, logger *slog.Logger) (*Client, error) {
	endpoint, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse prismic endpoint: %w", err)
	}
	if endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("prismic endpoint must be an absolute URL, got %q", cfg.Endpoint)
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	tries := cfg.MaxRetries + 1

	return &Client{
		endpoint:      endpoint,
		accessToken:   cfg.AccessToken,
		limiter:       rate.NewLimiter(limit, burst),
		maxTries:      tries,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// QueryFirstPage runs the listing query for documentType and returns its
// first page.
func (c *Client) QueryFirstPage(ctx context.Context, documentType string, fields []string, pageSize int) (models.RawPage, error) {
	params := url.Values{}
	params.Set("q", predicates(fmt.Sprintf(`at(document.type,%q)`, documentType)))
	if len(fields) > 0 {
		params.Set("fetch", strings.Join(fields, ","))
	}
	params.Set("pageSize", strconv.Itoa(pageSize))

	resp, err := c.search(ctx, "query", params)
	if err != nil {
		return models.RawPage{}, err
	}
	return toPage(resp), nil
}

// FetchPage fetches a next_page URL returned by an earlier query. The
// cursor is requested as is.
func (c *Client) FetchPage(ctx context.Context, cursor string) (models.RawPage, error) {
	u, err := url.Parse(cursor)
	if err != nil || u.Host != c.endpoint.Host {
		return models.RawPage{}, fmt.Errorf("%w: %q", ErrForeignCursor, cursor)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, "fetch_page", cursor, &resp); err != nil {
		return models.RawPage{}, err
	}
	return toPage(resp), nil
}

// GetByKey returns the document of documentType whose uid is key.
func (c *Client) GetByKey(ctx context.Context, documentType, key string) (models.RawRecord, error) {
	params := url.Values{}
	params.Set("q", predicates(fmt.Sprintf(`at(my.%s.uid,%q)`, documentType, key)))
	params.Set("pageSize", "1")

	resp, err := c.search(ctx, "get_by_key", params)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%s %q: %w", documentType, key, ErrDocumentNotFound)
	}
	return resp.Results[0], nil
}

// GetByKeys looks up several uids in one query. Keys without a document
// are absent from the result.
func (c *Client) GetByKeys(ctx context.Context, documentType string, keys []string) (map[string]models.RawRecord, error) {
	out := make(map[string]models.RawRecord, len(keys))
	for start := 0; start < len(keys); start += maxBatchKeys {
		end := min(start+maxBatchKeys, len(keys))
		chunk := keys[start:end]

		quoted := make([]string, len(chunk))
		for i, k := range chunk {
			quoted[i] = strconv.Quote(k)
		}
		params := url.Values{}
		params.Set("q", predicates(fmt.Sprintf(`in(my.%s.uid,[%s])`, documentType, strings.Join(quoted, ","))))
		params.Set("pageSize", strconv.Itoa(len(chunk)))

		resp, err := c.search(ctx, "get_by_keys", params)
		if err != nil {
			return nil, err
		}
		for _, rec := range resp.Results {
			if uid, ok := rec["uid"].(string); ok {
				out[uid] = rec
			}
		}
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, op string, params url.Values) (searchResponse, error) {
	ref, err := c.masterRef(ctx)
	if err != nil {
		return searchResponse{}, err
	}
	params.Set("ref", ref)
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}

	u := *c.endpoint
	u.Path += "/documents/search"
	u.RawQuery = params.Encode()

	var resp searchResponse
	if err := c.getJSON(ctx, op, u.String(), &resp); err != nil {
		return searchResponse{}, err
	}
	return resp, nil
}

func (c *Client) masterRef(ctx context.Context) (string, error) {
	u := *c.endpoint
	if c.accessToken != "" {
		u.RawQuery = url.Values{"access_token": {c.accessToken}}.Encode()
	}

	var info apiInfo
	if err := c.getJSON(ctx, "api", u.String(), &info); err != nil {
		return "", err
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			return r.Ref, nil
		}
	}
	return "", &TransportError{Op: "api", StatusCode: http.StatusOK, Err: errors.New("no master ref")}
}

// getJSON performs a GET with throttling and bounded retry and decodes the
// body into dst.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, dst any) error {
	start := time.Now()
	bo := backoff.NewExponentialBackOff()
	if c.retryInterval > 0 {
		bo.InitialInterval = c.retryInterval
	}

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		b, err := c.get(ctx, op, rawURL)
		if err != nil {
			var te *TransportError
			if errors.As(err, &te) && !te.retryable() {
				return nil, backoff.Permanent(err)
			}
			c.logger.Debug("content api request failed, retrying", "op", op, "err", err)
			return nil, err
		}
		return b, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries))

	metrics.CMSDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CMSRequests.WithLabelValues(op, "error").Inc()
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Op: op, Err: err}
		}
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		metrics.CMSRequests.WithLabelValues(op, "error").Inc()
		return &TransportError{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	metrics.CMSRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Client) get(ctx context.Context, op, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New("upstream returned non-2xx")}
	}
	return body, nil
}

func predicates(preds ...string) string {
	var b strings.Builder
	b.WriteString("[")
	for _, p := range preds {
		b.WriteString("[" + p + "]")
	}
	b.WriteString("]")
	return b.String()
}

func toPage(resp searchResponse) models.RawPage {
	page := models.RawPage{Records: resp.Results}
	if resp.NextPage != nil {
		page.NextCursor = *resp.NextPage
	}
	return page
}
