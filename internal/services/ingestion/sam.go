package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultSAMBaseURL = "https://api.sam.gov/opportunities/v2/search"
	// SAM.gov caps a page at 1000; smaller pages keep responses quick.
	pageLimit = 100
)

// PageRequest selects one page of notices posted in [PostedFrom, PostedTo],
// both formatted MM/DD/YYYY.
type PageRequest struct {
	PostedFrom string
	PostedTo   string
	Limit      int
	Offset     int
}

// SAMClient searches the SAM.gov opportunities API.
type SAMClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSAMClient returns a client allowing perMinute requests per minute.
func NewSAMClient(apiKey, baseURL string, perMinute int, client *http.Client) *SAMClient {
	if baseURL == "" {
		baseURL = DefaultSAMBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &SAMClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *SAMClient) Search(ctx context.Context, req PageRequest) (Page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	params := url.Values{}
	params.Add("api_key", s.apiKey)
	params.Add("postedFrom", req.PostedFrom)
	params.Add("postedTo", req.PostedTo)
	params.Add("limit", strconv.Itoa(req.Limit))
	params.Add("offset", strconv.Itoa(req.Offset))
	params.Add("ptype", "o")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("SAM API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return Page{}, fmt.Errorf("failed to decode response: %w (body: %s)", err, preview(body))
	}
	return page, nil
}

func preview(body []byte) string {
	if len(body) > 500 {
		return string(body[:500]) + "..."
	}
	return string(body)
}
