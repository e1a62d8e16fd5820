package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	maxDescriptionBody = 5 * 1024 * 1024
	maxUnwrapDepth     = 2
)

// ErrDescriptionNotFound means SAM.gov has no description for the notice.
var ErrDescriptionNotFound = errors.New("description not found")

// IsDescriptionURL reports whether a notice description is a link to the
// noticedesc endpoint rather than inline text.
func IsDescriptionURL(desc string) bool {
	desc = strings.TrimSpace(desc)
	return strings.HasPrefix(desc, "https://") || strings.HasPrefix(desc, "http://")
}

// FetchDescription downloads the text behind a noticedesc link.
func (s *SAMClient) FetchDescription(ctx context.Context, descURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(descURL))
	if err != nil {
		return "", fmt.Errorf("invalid description URL: %w", err)
	}
	q := u.Query()
	q.Set("api_key", s.apiKey)
	u.RawQuery = q.Encode()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDescriptionBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxDescriptionBody {
		return "", fmt.Errorf("description exceeds %d bytes", maxDescriptionBody)
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrDescriptionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("SAM API returned status %d: %s", resp.StatusCode, preview(body))
	}

	text := strings.TrimSpace(unwrapDescription(string(body), 0))
	if text == "" || strings.Contains(strings.ToLower(text), "description not found") {
		return "", ErrDescriptionNotFound
	}
	return text, nil
}

// unwrapDescription peels {"description": ...} objects and JSON-encoded
// strings, which SAM.gov sometimes nests.
func unwrapDescription(input string, depth int) string {
	if depth >= maxUnwrapDepth {
		return input
	}
	s := strings.TrimSpace(input)

	if strings.HasPrefix(s, "{") {
		var obj struct {
			Description *string `json:"description"`
			Error       string  `json:"error"`
		}
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			if obj.Description != nil {
				return unwrapDescription(*obj.Description, depth+1)
			}
			if obj.Error != "" {
				return obj.Error
			}
		}
	}
	if strings.HasPrefix(s, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return unwrapDescription(inner, depth+1)
		}
	}
	return input
}
