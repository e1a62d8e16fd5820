package sourcing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

const (
	defaultHTTPTimeout = 15 * time.Second
	maxOffersPerCall   = 6
)

// HTTPSource queries a vendor's JSON search API.
type HTTPSource struct {
	source catalog.Source
	client *http.Client
}

func NewHTTPSource(source catalog.Source, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSource{source: source, client: client}
}

func (s *HTTPSource) Source() catalog.Source {
	return s.source
}

type searchOffer struct {
	ProductName    string            `json:"product_name"`
	Description    string            `json:"description"`
	Vendor         string            `json:"vendor"`
	Price          decimal.Decimal   `json:"price"`
	PriceUnit      string            `json:"price_unit"`
	Currency       string            `json:"currency"`
	Availability   string            `json:"availability"`
	URL            string            `json:"url"`
	Specifications map[string]string `json:"specifications"`
	ContractNumber string            `json:"contract_number"`
}

// Search issues GET <endpoint>?q=<query>&category=<category>&limit=6.
func (s *HTTPSource) Search(ctx context.Context, req Request) ([]models.Candidate, error) {
	params := url.Values{}
	params.Add("q", req.Query)
	params.Add("category", req.Requirement.Category)
	params.Add("limit", strconv.Itoa(maxOffersPerCall))

	requestURL := fmt.Sprintf("%s?%s", s.source.Endpoint, params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return nil, fmt.Errorf("%s returned status %d: %s", s.source.Name, resp.StatusCode, string(body))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var searchResponse struct {
		Results []searchOffer `json:"results"`
	}
	if err := json.Unmarshal(bodyBytes, &searchResponse); err != nil {
		bodyPreview := string(bodyBytes)
		if len(bodyPreview) > 500 {
			bodyPreview = bodyPreview[:500] + "..."
		}
		return nil, fmt.Errorf("failed to decode response: %w\nResponse preview: %s", err, bodyPreview)
	}

	offers := searchResponse.Results
	if len(offers) > maxOffersPerCall {
		offers = offers[:maxOffersPerCall]
	}
	candidates := make([]models.Candidate, 0, len(offers))
	for _, o := range offers {
		if o.ProductName == "" {
			continue
		}
		vendor := o.Vendor
		if vendor == "" {
			vendor = s.source.Name
		}
		link := o.URL
		if link == "" {
			link = s.source.SearchLink(req.Query)
		}
		candidates = append(candidates, models.Candidate{
			ProductName:       o.ProductName,
			Description:       o.Description,
			Vendor:            vendor,
			Price:             o.Price,
			PriceUnit:         o.PriceUnit,
			Currency:          o.Currency,
			Specifications:    o.Specifications,
			Availability:      o.Availability,
			SourceURL:         link,
			GovContractNumber: o.ContractNumber,
		})
	}
	return candidates, nil
}
