// Package catalog loads the declarative business tables used by the research
// and matching pipelines: vendor sources, requirement categories, regions,
// set-aside rules and capability vocabularies.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Source is a vendor search endpoint.
type Source struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	SearchURL   string   `yaml:"search_url"`
	Endpoint    string   `yaml:"endpoint"`
	RateLimit   int      `yaml:"rate_limit"`
	Priority    int      `yaml:"priority"`
	Marketplace bool     `yaml:"marketplace"`
	Categories  []string `yaml:"categories"`
}

// Serves reports whether the source carries products of the given category.
// A source without a category list serves everything.
func (s Source) Serves(category string) bool {
	if s.Marketplace || len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// SearchLink renders the public search URL for a query.
func (s Source) SearchLink(query string) string {
	return strings.ReplaceAll(s.SearchURL, "{query}", url.QueryEscape(query))
}

// Category describes one requirement category the builder can detect.
type Category struct {
	Name            string            `yaml:"name"`
	Requirement     string            `yaml:"requirement"`
	Description     string            `yaml:"description"`
	Triggers        []string          `yaml:"triggers"`
	Anchor          string            `yaml:"anchor"`
	Extractor       string            `yaml:"extractor"`
	QuantityUnits   []string          `yaml:"quantity_units"`
	DefaultQuantity int               `yaml:"default_quantity"`
	UnitType        string            `yaml:"unit_type"`
	Priority        string            `yaml:"priority"`
	Keywords        []string          `yaml:"keywords"`
	Specifications  map[string]string `yaml:"specifications"`
	BasePrice       string            `yaml:"base_price"`
	Vendors         []string          `yaml:"vendors"`

	basePrice decimal.Decimal
}

// Price is the reference unit price used by offline candidate sources.
func (c Category) Price() decimal.Decimal {
	return c.basePrice
}

// GenericCategory maps keywords to a category name for requirements no category detected.
type GenericCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Generic holds the fallback requirement defaults.
type Generic struct {
	Name           string            `yaml:"name"`
	UnitType       string            `yaml:"unit_type"`
	BasePrice      string            `yaml:"base_price"`
	Vendors        []string          `yaml:"vendors"`
	Specifications map[string]string `yaml:"specifications"`

	basePrice decimal.Decimal
}

func (g Generic) Price() decimal.Decimal {
	return g.basePrice
}

// SetAside lists the business types that qualify for a set-aside program.
type SetAside struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Qualifying []string `yaml:"qualifying"`
}

// Matches reports whether the solicitation's set-aside text names this program.
func (s SetAside) Matches(setAsideText string) bool {
	text := strings.ToLower(setAsideText)
	if strings.Contains(text, strings.ToLower(s.Name)) {
		return true
	}
	for _, alias := range s.Aliases {
		if strings.Contains(text, strings.ToLower(alias)) {
			return true
		}
	}
	return false
}

type NAICSCapability struct {
	Prefix       string   `yaml:"prefix"`
	Capabilities []string `yaml:"capabilities"`
}

type NameCapability struct {
	Term         string   `yaml:"term"`
	Capabilities []string `yaml:"capabilities"`
}

// Catalog is the full set of declarative tables.
type Catalog struct {
	Sources           []Source            `yaml:"sources"`
	RecognizedVendors []string            `yaml:"recognized_vendors"`
	Categories        []Category          `yaml:"categories"`
	GenericCategories []GenericCategory   `yaml:"generic_categories"`
	Generic           Generic             `yaml:"generic"`
	Regions           map[string][]string `yaml:"regions"`
	SetAsides         []SetAside          `yaml:"set_asides"`
	NAICSCapabilities []NAICSCapability   `yaml:"naics_capabilities"`
	NameCapabilities  []NameCapability    `yaml:"name_capabilities"`
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("catalog has no sources")
	}
	marketplaces := 0
	keys := make(map[string]bool)
	for _, s := range c.Sources {
		if s.Key == "" || s.Name == "" {
			return fmt.Errorf("source %q: key and name are required", s.Name)
		}
		if keys[s.Key] {
			return fmt.Errorf("source key %q is duplicated", s.Key)
		}
		keys[s.Key] = true
		if s.RateLimit <= 0 {
			return fmt.Errorf("source %q: rate_limit must be positive", s.Key)
		}
		if s.Marketplace {
			marketplaces++
		}
	}
	if marketplaces != 1 {
		return fmt.Errorf("catalog must have exactly one marketplace source, found %d", marketplaces)
	}

	for i := range c.Categories {
		cat := &c.Categories[i]
		if cat.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
		if len(cat.Triggers) == 0 {
			return fmt.Errorf("category %q: at least one trigger is required", cat.Name)
		}
		if cat.Extractor == "" {
			return fmt.Errorf("category %q: extractor is required", cat.Name)
		}
		if cat.DefaultQuantity <= 0 {
			cat.DefaultQuantity = 1
		}
		price, err := parsePrice(cat.BasePrice)
		if err != nil {
			return fmt.Errorf("category %q: %w", cat.Name, err)
		}
		cat.basePrice = price
	}

	if c.Generic.Name == "" {
		c.Generic.Name = "General Services"
	}
	price, err := parsePrice(c.Generic.BasePrice)
	if err != nil {
		return fmt.Errorf("generic category: %w", err)
	}
	c.Generic.basePrice = price
	return nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.NewFromInt(200), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base_price %q: %w", s, err)
	}
	return d, nil
}

// Marketplace returns the government marketplace source.
func (c *Catalog) Marketplace() Source {
	for _, s := range c.Sources {
		if s.Marketplace {
			return s
		}
	}
	return Source{}
}

// Category looks up a category by name.
func (c *Catalog) Category(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// RegionOf returns the region bucket of a two-letter state code, or "".
func (c *Catalog) RegionOf(state string) string {
	state = strings.ToUpper(strings.TrimSpace(state))
	for region, states := range c.Regions {
		for _, s := range states {
			if s == state {
				return region
			}
		}
	}
	return ""
}

// SetAsideFor returns the first set-aside program named by the text.
func (c *Catalog) SetAsideFor(setAsideText string) (SetAside, bool) {
	for _, sa := range c.SetAsides {
		if sa.Matches(setAsideText) {
			return sa, true
		}
	}
	return SetAside{}, false
}
