package sourcing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

func hardwareRequest(query string) Request {
	return Request{
		Query: query,
		Requirement: models.Requirement{
			ID:             "RFQ-1-1",
			Name:           "Hardware Equipment",
			Description:    "Servers must be 2U rack-mount.",
			Category:       "Hardware",
			UnitType:       "each",
			Specifications: map[string]string{"Memory Requirements": "256 GB", "Form Factor": "2U rack-mount"},
		},
		Findings: models.Findings{
			GovernmentStandards: []string{"FIPS 140-2"},
			ComplianceRequirements: []models.ComplianceRequirement{
				{Standard: "FedRAMP"},
				{Standard: "FISMA"},
			},
		},
	}
}

func sourceByKey(t *testing.T, cat *catalog.Catalog, key string) catalog.Source {
	t.Helper()
	for _, s := range cat.Sources {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("no source %q", key)
	return catalog.Source{}
}

func TestCatalogSource_Deterministic(t *testing.T) {
	cat := catalog.Default()
	src := NewCatalogSource(sourceByKey(t, cat, "cdwg"), cat)

	first, err := src.Search(context.Background(), hardwareRequest("server rack"))
	require.NoError(t, err)
	second, err := src.Search(context.Background(), hardwareRequest("server rack"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, len(first), 1)
	assert.LessOrEqual(t, len(first), 6)
}

func TestCatalogSource_Offers(t *testing.T) {
	cat := catalog.Default()
	hardware, ok := cat.Category("Hardware")
	require.True(t, ok)
	src := NewCatalogSource(sourceByKey(t, cat, "cdwg"), cat)

	offers, err := src.Search(context.Background(), hardwareRequest("Hardware Equipment Hardware"))
	require.NoError(t, err)

	low, high := decimal.NewFromInt(2800), decimal.NewFromInt(4200)
	for i, o := range offers {
		assert.Contains(t, hardware.Vendors, o.Vendor)
		assert.True(t, o.Price.GreaterThanOrEqual(low) && o.Price.LessThanOrEqual(high), o.Price.String())
		assert.Empty(t, o.GovContractNumber)
		assert.Equal(t, "256 GB", o.Specifications["Memory Requirements"])
		assert.Equal(t, "Compliant", o.Specifications["FIPS 140-2"])
		assert.Equal(t, "Certified", o.Specifications["FedRAMP Compliance"])
		if i%2 == 0 {
			assert.Equal(t, "Certified", o.Specifications["FISMA Compliance"])
		} else {
			assert.NotContains(t, o.Specifications, "FISMA Compliance")
		}
		assert.Contains(t, o.SourceURL, "https://www.cdwg.com/search/?key=Hardware+Equipment+Hardware")
	}
}

func TestCatalogSource_MarketplaceCarriesContractNumber(t *testing.T) {
	cat := catalog.Default()
	src := NewCatalogSource(cat.Marketplace(), cat)

	offers, err := src.Search(context.Background(), hardwareRequest("server rack"))
	require.NoError(t, err)

	for _, o := range offers {
		assert.Equal(t, "GSA Advantage", o.Vendor)
		assert.Regexp(t, `^GS-35F-\d{6}$`, o.GovContractNumber)
	}
}

func TestHTTPSource_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "server rack", r.URL.Query().Get("q"))
		assert.Equal(t, "Hardware", r.URL.Query().Get("category"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[
			{"product_name":"PowerEdge R650","vendor":"Dell","price":4199.99,"availability":"In Stock","specifications":{"Form Factor":"1U"}},
			{"product_name":"","price":"1"},
			{"product_name":"ProLiant DL380","price":"3899.50","contract_number":"GS-35F-123456"}
		]}`)
	}))
	defer srv.Close()

	src := NewHTTPSource(catalog.Source{Key: "acme", Name: "Acme Gov", Endpoint: srv.URL + "/search"}, srv.Client())
	offers, err := src.Search(context.Background(), hardwareRequest("server rack"))
	require.NoError(t, err)

	require.Len(t, offers, 2)
	assert.Equal(t, "PowerEdge R650", offers[0].ProductName)
	assert.True(t, decimal.RequireFromString("4199.99").Equal(offers[0].Price))
	assert.Equal(t, "1U", offers[0].Specifications["Form Factor"])
	assert.Equal(t, "Acme Gov", offers[1].Vendor)
	assert.Equal(t, "GS-35F-123456", offers[1].GovContractNumber)
}

func TestHTTPSource_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTPSource(catalog.Source{Key: "acme", Name: "Acme Gov", Endpoint: srv.URL}, srv.Client())
	_, err := src.Search(context.Background(), hardwareRequest("server rack"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestNewSources_PicksImplementationByEndpoint(t *testing.T) {
	cat := catalog.Default()
	cat.Sources[1].Endpoint = "https://api.example.test/search"

	sources := NewSources(cat, nil)

	require.Len(t, sources, len(cat.Sources))
	assert.IsType(t, &CatalogSource{}, sources[0])
	assert.IsType(t, &HTTPSource{}, sources[1])
}

func TestLimiters(t *testing.T) {
	l, ok := PerMinute(catalog.Source{RateLimit: 6}).(*rate.Limiter)
	require.True(t, ok)
	assert.Equal(t, rate.Every(10*time.Second), l.Limit())
	assert.Equal(t, 1, l.Burst())

	unlimited := Unlimited(catalog.Source{})
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(context.Background()))
	}
}
