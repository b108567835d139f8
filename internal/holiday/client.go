// Package holiday fetches Korean public-holiday data from the data.go.kr
// SpcdeInfoService, caches it by year, and merges it into resolved
// calendar windows.
package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
)

// Entry is one record from the SpcdeInfoService feed. Locdate is the
// date packed as yyyymmdd; IsHoliday is the service's literal "Y"/"N".
type Entry struct {
	Locdate   int    `json:"locdate"`
	DateName  string `json:"dateName"`
	IsHoliday string `json:"isHoliday"`
}

// Date unpacks the Locdate integer.
func (e Entry) Date() (year int, month time.Month, day int) {
	return e.Locdate / 10000, time.Month(e.Locdate / 100 % 100), e.Locdate % 100
}

type apiResponse struct {
	Response struct {
		Body struct {
			Items struct {
				Item []Entry `json:"item"`
			} `json:"items"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// Client fetches holiday entries for a calendar year.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

func NewClient(serviceKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://apis.data.go.kr/B090041/openapi/service/SpcdeInfoService/getRestDeInfo",
		serviceKey: serviceKey,
	}
}

// FetchYear returns every rest-day entry for the given year. Transient
// failures (network errors, 5xx) are retried with exponential backoff.
func (c *Client) FetchYear(ctx context.Context, year int) ([]Entry, error) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	var entries []Entry
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		entries, err = c.fetchYear(ctx, year)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch holidays for %d: %w", year, err)
	}
	return entries, nil
}

func (c *Client) fetchYear(ctx context.Context, year int) ([]Entry, error) {
	q := url.Values{}
	q.Set("serviceKey", c.serviceKey)
	q.Set("solYear", strconv.Itoa(year))
	q.Set("numOfRows", "100")
	q.Set("_type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode holiday response: %w", err)
	}
	return body.Response.Body.Items.Item, nil
}
