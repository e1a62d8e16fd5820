package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govcon/research/internal/catalog"
	"govcon/research/internal/models"
)

func newBuilder(t *testing.T) (*RequirementBuilder, *PatternExtractor) {
	t.Helper()
	extractor := NewPatternExtractor()
	b, err := NewRequirementBuilder(catalog.Default(), extractor)
	require.NoError(t, err)
	return b, extractor
}

func build(t *testing.T, sol models.Solicitation) []models.Requirement {
	t.Helper()
	b, extractor := newBuilder(t)
	corpus := AssembleCorpus(sol)
	return b.Build(sol, corpus, extractor.Classify(corpus))
}

func TestBuild_HardwareRequirement(t *testing.T) {
	reqs := build(t, models.Solicitation{
		ID:          "RFQ-1",
		Title:       "Rack Server Refresh",
		Description: strings.TrimPrefix(serverCorpus, "Rack Server Refresh\n\n"),
	})

	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "RFQ-1-1", r.ID)
	assert.Equal(t, "Hardware", r.Category)
	assert.Equal(t, "Hardware Equipment", r.Name)
	assert.Equal(t, 12, r.Quantity)
	assert.Equal(t, "each", r.UnitType)
	assert.Equal(t, models.PriorityHigh, r.Priority)

	assert.Equal(t, "Intel Xeon Gold 6338", r.Specifications["CPU Requirements"])
	assert.Equal(t, "256 GB", r.Specifications["Memory Requirements"])
	assert.Equal(t, "4 TB", r.Specifications["Storage Requirements"])
	assert.Equal(t, "2U rack-mount", r.Specifications["Form Factor"])
	assert.Equal(t, "As specified in solicitation", r.Specifications["Exact Model"])

	assert.Contains(t, r.Keywords, "server")
	assert.Contains(t, r.Keywords, "rack")
	assert.LessOrEqual(t, len(r.Keywords), maxRequirementKeywords)
}

func TestBuild_MedicalPriorityIsAlwaysHigh(t *testing.T) {
	reqs := build(t, models.Solicitation{
		ID:          "VA-7",
		Title:       "Ultrasound",
		Description: "Clinical diagnostic ultrasound systems are preferred. Devices need FDA 510(k) clearance, Class II.",
	})

	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "Medical Equipment", r.Category)
	assert.Equal(t, models.PriorityHigh, r.Priority)
	assert.Equal(t, "510(k) clearance required", r.Specifications["FDA Approval Number"])
	assert.Equal(t, "Class II", r.Specifications["Medical Device Class"])
	assert.Equal(t, "Required", r.Specifications["HIPAA Compliance"])
	assert.Equal(t, 1, r.Quantity)
}

func TestBuild_MultipleCategoriesGetSequentialIDs(t *testing.T) {
	reqs := build(t, models.Solicitation{
		ID:          "DOD-3",
		Title:       "Software and servers",
		Description: "Provide 200 users of database software version 19.3 and 4 servers.",
	})

	require.Len(t, reqs, 2)
	assert.Equal(t, "DOD-3-1", reqs[0].ID)
	assert.Equal(t, "Software", reqs[0].Category)
	assert.Equal(t, "19.3", reqs[0].Specifications["Exact Version"])
	assert.Equal(t, "200", reqs[0].Specifications["User Count"])
	assert.Equal(t, 200, reqs[0].Quantity)

	assert.Equal(t, "DOD-3-2", reqs[1].ID)
	assert.Equal(t, "Hardware", reqs[1].Category)
	assert.Equal(t, 4, reqs[1].Quantity)
}

func TestBuild_GenericFallback(t *testing.T) {
	title := "Janitorial and custodial support for the regional field office complex"
	reqs := build(t, models.Solicitation{
		ID:          "RFQ-9",
		Title:       title,
		Description: "Provide weekly cleaning services.",
	})

	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "RFQ-9-1", r.ID)
	assert.Equal(t, "General Services", r.Category)
	assert.Len(t, []rune(r.Name), 50)
	assert.True(t, strings.HasSuffix(r.Name, "..."))
	assert.Equal(t, "Products and services required for: "+title, r.Description)
	assert.Equal(t, 1, r.Quantity)
	assert.Equal(t, "lot", r.UnitType)
	assert.Equal(t, models.PriorityMedium, r.Priority)
	assert.Contains(t, r.Keywords, "janitorial")
	assert.LessOrEqual(t, len(r.Keywords), maxGenericKeywords)
	assert.Equal(t, "Commercial grade or better", r.Specifications["Quality"])
}

func TestBuild_GenericCategoryFromKeywords(t *testing.T) {
	reqs := build(t, models.Solicitation{
		ID:          "RFQ-10",
		Title:       "Cybersecurity assessment",
		Description: "Provide a security assessment of agency networks.",
	})

	require.Len(t, reqs, 1)
	assert.Equal(t, "Security", reqs[0].Category)
	assert.Equal(t, "Cybersecurity assessment", reqs[0].Name)
}

func TestBuild_EveryRequirementHasCategory(t *testing.T) {
	sols := []models.Solicitation{
		{ID: "a", Title: ""},
		{ID: "b", Title: "Office furniture", Description: "50 desks and 50 chairs, BIFMA certified."},
		{ID: "c", Title: "Fleet", Description: "Provide 12 trucks, electric pickup models with AWD."},
		{ID: "d", Title: "Cloud migration", Description: "FedRAMP High SaaS with 24/7 support."},
	}
	for _, sol := range sols {
		for _, r := range build(t, sol) {
			assert.NotEmpty(t, r.Category, sol.ID)
			assert.NotEmpty(t, r.Name, sol.ID)
			assert.Positive(t, r.Quantity, sol.ID)
		}
	}
}

func TestBuild_VehicleSpecs(t *testing.T) {
	reqs := build(t, models.Solicitation{
		ID:          "c",
		Title:       "Fleet",
		Description: "Provide 12 trucks, electric pickup models with AWD.",
	})

	require.Len(t, reqs, 1)
	r := reqs[0]
	assert.Equal(t, "Vehicles", r.Category)
	assert.Equal(t, 12, r.Quantity)
	assert.Equal(t, "Electric", r.Specifications["Fuel Type"])
	assert.Equal(t, "Pickup", r.Specifications["Vehicle Type"])
	assert.Equal(t, "AWD", r.Specifications["Drive Train"])
}

func TestRegister_CustomCategory(t *testing.T) {
	b, extractor := newBuilder(t)
	b.Register(CategoryRule{
		Category: catalog.Category{
			Name:            "Unmanned Aircraft",
			Requirement:     "Survey Drone",
			QuantityUnits:   []string{"drone"},
			DefaultQuantity: 1,
			UnitType:        "each",
		},
		Detect:  extractor.Detector([]string{"drone", "drones"}),
		Extract: func(string) map[string]string { return map[string]string{"Payload": "2 kg"} },
	})

	corpus := "We need 4 drones for survey work."
	reqs := b.Build(models.Solicitation{ID: "X"}, corpus, extractor.Classify(corpus))

	require.Len(t, reqs, 1)
	assert.Equal(t, "Unmanned Aircraft", reqs[0].Category)
	assert.Equal(t, "Survey Drone", reqs[0].Name)
	assert.Equal(t, 4, reqs[0].Quantity)
	assert.Equal(t, "2 kg", reqs[0].Specifications["Payload"])
	assert.Equal(t, models.PriorityLow, reqs[0].Priority)
}

func TestNewRequirementBuilder_UnknownExtractor(t *testing.T) {
	cat := catalog.Default()
	cat.Categories = append(cat.Categories, catalog.Category{Name: "Bad", Triggers: []string{"x"}, Extractor: "nope"})

	_, err := NewRequirementBuilder(cat, NewPatternExtractor())
	assert.Error(t, err)
}

func TestBuild_CaseChangingRunesBeforeAnchor(t *testing.T) {
	var reqs []models.Requirement
	require.NotPanics(t, func() {
		reqs = build(t, models.Solicitation{
			ID:          "RFQ-9",
			Title:       "Procurement",
			Description: strings.Repeat("Ⱥ", 400) + " We need 5 servers.",
		})
	})

	require.NotEmpty(t, reqs)
	assert.Equal(t, "Hardware", reqs[0].Category)
}

func TestBuild_CloudServiceModelNames(t *testing.T) {
	specs := extractCloudSpecs("Provide a SAAS platform on iaas with a saas portal.")

	assert.Equal(t, "SaaS, IaaS", specs["Service Model"])
}
