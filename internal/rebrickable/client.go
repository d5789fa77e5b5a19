// Package rebrickable provides a client for the Rebrickable API v3, the
// external catalog service set inventories are fetched from.
package rebrickable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/bricktools/brickpick/pkg/errors"
	"github.com/bricktools/brickpick/pkg/parts"
)

// DefaultBaseURL is the production Rebrickable API endpoint.
const DefaultBaseURL = "https://rebrickable.com/api/v3"

// DefaultTimeout bounds each HTTP request.
const DefaultTimeout = 10 * time.Second

// maxPageSize is the largest page the API accepts for part listings.
const maxPageSize = 1000

// minRequestInterval spaces requests to stay under the API's rate limit.
const minRequestInterval = 100 * time.Millisecond

// Client talks to the Rebrickable API. Safe for concurrent use. Fetching is
// idempotent per set number: repeated calls return equivalent data.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	mu   sync.Mutex
	last time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// New creates a Rebrickable client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire structures for the Rebrickable API.
type pagedPartsResponse struct {
	Count   int              `json:"count"`
	Next    *string          `json:"next"`
	Results []setPartsResult `json:"results"`
}

type setPartsResult struct {
	Part struct {
		PartNum string `json:"part_num"`
	} `json:"part"`
	Color struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"color"`
	Quantity int  `json:"quantity"`
	IsSpare  bool `json:"is_spare"`
}

type setInfoResponse struct {
	SetNum   string `json:"set_num"`
	Name     string `json:"name"`
	Year     int    `json:"year"`
	NumParts int    `json:"num_parts"`
}

// SetInfo describes a set without its part list.
type SetInfo struct {
	SetNumber string
	Name      string
	Year      int
	NumParts  int
}

// SetInventory fetches the full inventory of a set: its name plus every part
// line including spares. Spare filtering happens downstream so the cached
// copy stays complete.
func (c *Client) SetInventory(ctx context.Context, setNumber string) (*parts.SetInventory, error) {
	info, err := c.GetSetInfo(ctx, setNumber)
	if err != nil {
		return nil, err
	}

	lines, err := c.setParts(ctx, setNumber)
	if err != nil {
		return nil, err
	}

	return &parts.SetInventory{
		SetNumber: setNumber,
		SetName:   info.Name,
		FetchedAt: time.Now().UTC(),
		Lines:     lines,
	}, nil
}

// GetSetInfo fetches basic metadata for a set.
func (c *Client) GetSetInfo(ctx context.Context, setNumber string) (SetInfo, error) {
	endpoint := fmt.Sprintf("%s/lego/sets/%s/", c.baseURL, url.PathEscape(setNumber))

	var result setInfoResponse
	if err := c.getJSON(ctx, setNumber, endpoint, &result); err != nil {
		return SetInfo{}, err
	}

	return SetInfo{
		SetNumber: result.SetNum,
		Name:      result.Name,
		Year:      result.Year,
		NumParts:  result.NumParts,
	}, nil
}

// ValidateKey checks the API key with a minimal request.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	endpoint := c.baseURL + "/lego/colors/?page_size=1"

	var ignored json.RawMessage
	err := c.getJSON(ctx, "", endpoint, &ignored)
	if err == nil {
		return true, nil
	}
	var fetchErr *errors.FetchError
	if errors.As(err, &fetchErr) && (fetchErr.StatusCode == 401 || fetchErr.StatusCode == 403) {
		return false, nil
	}
	return false, err
}

// setParts pages through the set's part list.
func (c *Client) setParts(ctx context.Context, setNumber string) ([]parts.InventoryLine, error) {
	base := fmt.Sprintf("%s/lego/sets/%s/parts/", c.baseURL, url.PathEscape(setNumber))

	var lines []parts.InventoryLine
	for page := 1; ; page++ {
		endpoint := base + "?page=" + strconv.Itoa(page) + "&page_size=" + strconv.Itoa(maxPageSize)

		var result pagedPartsResponse
		if err := c.getJSON(ctx, setNumber, endpoint, &result); err != nil {
			return nil, err
		}

		for _, item := range result.Results {
			lines = append(lines, parts.InventoryLine{
				Key: parts.PartKey{
					PartNumber: item.Part.PartNum,
					ColorID:    item.Color.ID,
				},
				Quantity: item.Quantity,
				IsSpare:  item.IsSpare,
			})
		}

		if result.Next == nil || *result.Next == "" {
			return lines, nil
		}
	}
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, setNumber, endpoint string, out any) error {
	if c.apiKey == "" {
		return errors.ErrAPIKeyRequired
	}
	if err := c.pace(ctx); err != nil {
		return &errors.FetchError{SetNumber: setNumber, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &errors.FetchError{SetNumber: setNumber, Err: err}
	}
	req.Header.Set("Authorization", "key "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.FetchError{SetNumber: setNumber, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errors.FetchError{
			SetNumber:  setNumber,
			StatusCode: resp.StatusCode,
			Message:    httpErrorMessage(resp.StatusCode, body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.FetchError{SetNumber: setNumber, Message: "decoding response", Err: err}
	}
	return nil
}

// pace enforces the minimum interval between requests, honoring context
// cancellation while waiting.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	wait := minRequestInterval - time.Since(c.last)
	if wait > 0 {
		c.last = c.last.Add(minRequestInterval)
	} else {
		c.last = time.Now()
		wait = 0
	}
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func httpErrorMessage(status int, body []byte) string {
	msg := http.StatusText(status)
	if len(body) > 0 {
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
			msg = detail.Detail
		}
	}
	return msg
}
