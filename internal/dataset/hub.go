package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultHubEndpoint is the public Hugging Face datasets-server.
const DefaultHubEndpoint = "https://datasets-server.huggingface.co"

// MaxHubPageSize is the largest page the datasets-server /rows endpoint serves.
const MaxHubPageSize = 100

// HubLoader reads datasets through the datasets-server REST API. Splits are
// listed with /splits and their rows fetched lazily, page by page, with /rows.
type HubLoader struct {
	client   *resty.Client
	endpoint string
	pageSize int
}

// NewHubLoader returns a loader for endpoint. An empty token sends anonymous
// requests; a zero timeout leaves the client without one.
func NewHubLoader(endpoint, token string, pageSize int, timeout time.Duration) *HubLoader {
	if pageSize <= 0 || pageSize > MaxHubPageSize {
		pageSize = MaxHubPageSize
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(endpoint, "/")).
		SetHeader("Accept", "application/json").
		SetJSONUnmarshaler(decodeJSON)
	if token != "" {
		client.SetAuthToken(token)
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &HubLoader{
		client:   client,
		endpoint: endpoint,
		pageSize: pageSize,
	}
}

func (h *HubLoader) Name() string { return BackendHub }

// Available checks that the endpoint is an absolute http(s) URL.
func (h *HubLoader) Available() error {
	if h.endpoint == "" {
		return errors.New("no endpoint configured")
	}
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("endpoint must be an absolute URL, got: %s", h.endpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint scheme must be http or https, got: %s", u.Scheme)
	}
	return nil
}

type hubSplitsResponse struct {
	Splits []struct {
		Dataset string `json:"dataset"`
		Config  string `json:"config"`
		Split   string `json:"split"`
	} `json:"splits"`
}

type hubRowsResponse struct {
	Rows []struct {
		RowIdx int    `json:"row_idx"`
		Row    Record `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Load lists the splits of id/config. With an empty config the first
// configuration the server lists is used, which is the dataset's default.
func (h *HubLoader) Load(ctx context.Context, id, config string) (Bundle, error) {
	params := map[string]string{"dataset": id}
	if config != "" {
		params["config"] = config
	}

	var listing hubSplitsResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&listing).
		Get("/splits")
	if err != nil {
		return nil, transformRequestError(err)
	}
	if err := checkHubResponse(resp, id, config); err != nil {
		return nil, err
	}

	if len(listing.Splits) == 0 {
		return nil, fmt.Errorf("dataset %q has no splits", id)
	}
	if config == "" {
		config = listing.Splits[0].Config
	}

	b := &hubBundle{loader: h, dataset: id, config: config}
	seen := make(map[string]bool)
	for _, s := range listing.Splits {
		if s.Config != config || seen[s.Split] {
			continue
		}
		seen[s.Split] = true
		b.order = append(b.order, s.Split)
	}

	slog.Debug("Listed hub splits", "dataset", id, "config", config, "splits", b.order)
	return b, nil
}

type hubBundle struct {
	loader  *HubLoader
	dataset string
	config  string
	order   []string
}

func (b *hubBundle) Splits() []string {
	return append([]string(nil), b.order...)
}

func (b *hubBundle) Split(name string) (Split, bool) {
	for _, s := range b.order {
		if s == name {
			return &hubSplit{bundle: b, name: name}, true
		}
	}
	return nil, false
}

type hubSplit struct {
	bundle *hubBundle
	name   string
}

func (s *hubSplit) Name() string { return s.name }

// Records fetches one page at a time; stopping early leaves the remaining
// pages unrequested. When the server does not report num_rows_total, paging
// continues until a short or empty page.
func (s *hubSplit) Records(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		offset := 0
		for {
			page, err := s.fetch(ctx, offset)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, row := range page.Rows {
				if !yield(row.Row, nil) {
					return
				}
			}
			offset += len(page.Rows)
			if len(page.Rows) == 0 {
				return
			}
			if page.NumRowsTotal > 0 {
				if offset >= page.NumRowsTotal {
					return
				}
			} else if len(page.Rows) < s.bundle.loader.pageSize {
				return
			}
		}
	}
}

func (s *hubSplit) fetch(ctx context.Context, offset int) (*hubRowsResponse, error) {
	h := s.bundle.loader
	slog.Debug("Fetching hub rows", "dataset", s.bundle.dataset, "split", s.name, "offset", offset, "length", h.pageSize)

	var page hubRowsResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"dataset": s.bundle.dataset,
			"config":  s.bundle.config,
			"split":   s.name,
			"offset":  strconv.Itoa(offset),
			"length":  strconv.Itoa(h.pageSize),
		}).
		SetResult(&page).
		Get("/rows")
	if err != nil {
		return nil, transformRequestError(err)
	}
	if err := checkHubResponse(resp, s.bundle.dataset, s.bundle.config); err != nil {
		return nil, err
	}
	return &page, nil
}

func transformRequestError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", context.Canceled)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", context.DeadlineExceeded)
	}
	return fmt.Errorf("network error: unable to reach datasets server: %w", err)
}

func checkHubResponse(resp *resty.Response, id, config string) error {
	if resp.StatusCode() < http.StatusBadRequest {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("access denied to dataset %q: check the hub token (status %d)", id, resp.StatusCode())
	case http.StatusNotFound:
		if msg := parseHubError(resp); msg != "" {
			return fmt.Errorf("dataset %q (config %q) not found: %s", id, config, msg)
		}
		return fmt.Errorf("dataset %q (config %q) not found", id, config)
	case http.StatusTooManyRequests:
		if ra := strings.TrimSpace(resp.Header().Get("Retry-After")); ra != "" {
			return fmt.Errorf("rate limit exceeded: retry after %s", ra)
		}
		return fmt.Errorf("rate limit exceeded: please retry later")
	default:
		if msg := parseHubError(resp); msg != "" {
			return fmt.Errorf("datasets server error: %s (status %d)", msg, resp.StatusCode())
		}
		return fmt.Errorf("datasets server error (status %d)", resp.StatusCode())
	}
}

func parseHubError(resp *resty.Response) string {
	body := resp.Body()
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Error)
}
