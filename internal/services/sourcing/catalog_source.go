package sourcing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

var (
	namePrefixes = []string{"Professional", "Enterprise", "Commercial", "Industrial", "Advanced", "Premium"}
	nameSuffixes = []string{"Pro", "Enterprise", "Business", "Commercial", "Series", "Elite"}
	features     = []string{
		"High-quality construction",
		"Government-grade compliance",
		"Extended warranty included",
		"Professional installation available",
		"Bulk pricing available",
		"24/7 technical support",
		"GSA Schedule pricing",
	}
	availabilities = []string{
		"In Stock - Ships Next Day",
		"In Stock - Ships 2-3 Days",
		"Limited Stock - Ships 1 Week",
		"Available - Ships 2-3 Weeks",
		"Special Order - 4-6 Weeks",
	}
)

// CatalogSource is an offline source that derives offers from the catalog's
// reference prices and vendor lists. Output is a pure function of the
// source key, query and requirement.
type CatalogSource struct {
	source catalog.Source
	cat    *catalog.Catalog
}

func NewCatalogSource(source catalog.Source, cat *catalog.Catalog) *CatalogSource {
	return &CatalogSource{source: source, cat: cat}
}

func (s *CatalogSource) Source() catalog.Source {
	return s.source
}

func (s *CatalogSource) Search(ctx context.Context, req Request) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(seed(s.source.Key, req.Query), seed(req.Requirement.ID, req.Requirement.Category)))

	basePrice, vendors := s.cat.Generic.Price(), s.cat.Generic.Vendors
	if c, ok := s.cat.Category(req.Requirement.Category); ok {
		basePrice, vendors = c.Price(), c.Vendors
	}
	if len(vendors) == 0 {
		vendors = []string{s.source.Name}
	}

	count := 1 + rng.IntN(maxOffersPerCall)
	offers := make([]models.Candidate, 0, count)
	for i := 0; i < count; i++ {
		vendor := vendors[rng.IntN(len(vendors))]
		if s.source.Marketplace {
			vendor = s.source.Name
		}

		// ±20% around the reference price
		variation := decimal.NewFromFloat(0.8 + rng.Float64()*0.4)
		price := basePrice.Mul(variation).Round(2)

		offer := models.Candidate{
			ProductName:    productName(rng, vendor, req.Requirement.Name, i),
			Description:    description(rng, req.Requirement),
			Vendor:         vendor,
			Price:          price,
			PriceUnit:      req.Requirement.UnitType,
			Currency:       "USD",
			Specifications: offerSpecs(rng, req, i),
			Availability:   availabilities[rng.IntN(len(availabilities))],
			SourceURL:      fmt.Sprintf("%s#result%d", s.source.SearchLink(req.Query), i),
		}
		if s.source.Marketplace {
			offer.GovContractNumber = fmt.Sprintf("GS-35F-%06d", rng.IntN(1000000))
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func productName(rng *rand.Rand, vendor, requirement string, index int) string {
	head := requirement
	if fields := strings.Fields(requirement); len(fields) > 0 {
		head = fields[0]
	}
	return fmt.Sprintf("%s %s %s %s Model %c%d",
		vendor,
		namePrefixes[rng.IntN(len(namePrefixes))],
		head,
		nameSuffixes[rng.IntN(len(nameSuffixes))],
		'A'+rune(index%26),
		1000+rng.IntN(9000))
}

func description(rng *rand.Rand, r models.Requirement) string {
	picked := make([]string, len(features))
	copy(picked, features)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return fmt.Sprintf("%s. Features: %s.", strings.TrimSuffix(r.Description, "."), strings.Join(picked[:3], ", "))
}

// offerSpecs echoes the requirement's specifications and certifies the
// document's compliance standards: all of them on even offers, the first on odd ones.
func offerSpecs(rng *rand.Rand, req Request, index int) map[string]string {
	specs := make(map[string]string, len(req.Requirement.Specifications)+4)
	for k, v := range req.Requirement.Specifications {
		specs[k] = v
	}
	for i, c := range req.Findings.ComplianceRequirements {
		if index%2 == 1 && i > 0 {
			break
		}
		specs[c.Standard+" Compliance"] = "Certified"
	}
	for _, std := range req.Findings.GovernmentStandards {
		specs[std] = "Compliant"
	}
	specs["Warranty"] = fmt.Sprintf("%d-year warranty", 1+rng.IntN(3))
	return specs
}
