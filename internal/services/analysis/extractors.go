package analysis

import (
	"regexp"
	"strings"
)

// SpecExtractor returns the category-specific specification values it can find
// in the corpus. Fields it cannot find are left to the category's defaults.
type SpecExtractor func(corpus string) map[string]string

// specExtractors is keyed by the extractor name used in the category catalog.
var specExtractors = map[string]SpecExtractor{
	"cloud":        extractCloudSpecs,
	"software":     extractSoftwareSpecs,
	"hardware":     extractHardwareSpecs,
	"medical":      extractMedicalSpecs,
	"construction": extractConstructionSpecs,
	"furniture":    extractFurnitureSpecs,
	"vehicle":      extractVehicleSpecs,
}

// LookupExtractor returns the named extractor.
func LookupExtractor(name string) (SpecExtractor, bool) {
	ex, ok := specExtractors[name]
	return ex, ok
}

var (
	serviceModelPattern = regexp.MustCompile(`(?i)\b(iaas|paas|saas)\b`)
	serviceModelNames   = map[string]string{"iaas": "IaaS", "paas": "PaaS", "saas": "SaaS"}
	impactLevelPattern  = regexp.MustCompile(`(?i)\bfedramp\s+(?:high|moderate|low)\b|\b(?:il|impact\s+level)\s*[2456]\b`)
	support247Pattern   = regexp.MustCompile(`(?i)\b24\s*/\s*7\b|\b24x7\b`)
	businessHrsPattern  = regexp.MustCompile(`(?i)\bbusiness\s+hours\b`)

	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bminimum\s+version:\s*([^\n]+?)(?:\.\s|\n|$)`),
		regexp.MustCompile(`(?i)\bversion\s+(\d+(?:\.\d+){0,2})`),
		regexp.MustCompile(`(?i)\bv(\d+(?:\.\d+){1,2})\b`),
	}
	licenseTypePattern = regexp.MustCompile(`(?i)\b(perpetual|subscription|enterprise|site|concurrent|named[- ]user)\s+licen[sc]es?\b`)
	userCountPattern   = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+(?:named\s+|concurrent\s+)?(?:users|seats)\b`)
	deploymentPattern  = regexp.MustCompile(`(?i)\b(on-premises|on-premise|on premises|cloud-based|cloud hosted|hybrid)\b`)

	modelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmodel\s+(?:number\s*)?[:#]?\s*([A-Z0-9][A-Z0-9-]*\d[A-Z0-9-]*)`),
		regexp.MustCompile(`(?i)\bpart\s+number\s*[:\s]\s*([A-Z0-9][A-Z0-9-]*)`),
		regexp.MustCompile(`(?i)\bp/n[:\s]+([A-Z0-9][A-Z0-9-]*)`),
		regexp.MustCompile(`(?i)\bsku[:\s]+([A-Z0-9][A-Z0-9-]*)`),
	}
	cpuPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:cpu|processor):\s*([^\n.]+)`),
		regexp.MustCompile(`(?i)\bminimum\s+(\d+(?:\.\d+)?\s*ghz)`),
		regexp.MustCompile(`(?i)\b((?:intel|amd)\s+[\w-]+(?:\s+[\w-]+)?)`),
	}
	memoryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:memory|ram):\s*(\d+\s*(?:gb|mb|tb))`),
		regexp.MustCompile(`(?i)\b(\d+\s*(?:gb|tb))\s+(?:of\s+)?(?:ram|memory)\b`),
	}
	storagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:storage|disk|ssd):\s*(\d+\s*(?:gb|mb|tb))`),
		regexp.MustCompile(`(?i)\b(\d+\s*(?:gb|tb))\s+(?:of\s+)?(?:ssd|nvme|storage)\b`),
	}
	formFactorPattern = regexp.MustCompile(`(?i)\b(\d+u\s+rack(?:[- ]mount(?:ed)?)?|rack[- ]mount(?:ed)?|tower|blade|small\s+form\s+factor|laptop|desktop)\b`)

	fdaNumberPattern     = regexp.MustCompile(`\b(K\d{6})\b`)
	fda510kPattern       = regexp.MustCompile(`(?i)\b510\(k\)`)
	deviceClassPattern   = regexp.MustCompile(`(?i)\b(?:device\s+)?class\s+(iii|ii|i)\b`)
	calibrationPattern   = regexp.MustCompile(`(?i)\bcalibration\b[^\n.]*`)
	sterilizationPattern = regexp.MustCompile(`(?i)\b(autoclave|steam|ethylene\s+oxide|gamma|e-beam)\s+steriliz\w*`)

	buildingCodePattern  = regexp.MustCompile(`(?i)\b(IBC|International\s+Building\s+Code|NFPA\s*\d+|ADA)\b`)
	materialGradePattern = regexp.MustCompile(`(?i)\b(grade\s+[A-Z0-9][\w-]*|ASTM\s+[A-Z]\d+)`)
	loadPattern          = regexp.MustCompile(`(?i)\b(\d[\d,]*\s*(?:psi|psf|lbs?|pounds|kips?))\b`)
	environmentalPattern = regexp.MustCompile(`(?i)\b(LEED\s+\w+|energy\s+star)\b`)
	fireRatingPattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?[- ]hour\s+fire[- ]rat\w*|class\s+[abc]\s+fire[- ]rat\w*)`)

	furnitureMaterialPattern = regexp.MustCompile(`(?i)\b(steel|wood|laminate|mesh|fabric|leather)\b`)
	dimensionsPattern        = regexp.MustCompile(`(?i)\b(\d+\s*(?:"|in|inch(?:es)?)?\s*x\s*\d+(?:\s*(?:"|in|inch(?:es)?))?)`)
	bifmaPattern             = regexp.MustCompile(`(?i)\bbifma\b`)

	vehicleTypePattern = regexp.MustCompile(`(?i)\b(sedan|suv|pickup|van|truck|bus)\b`)
	fuelTypePattern    = regexp.MustCompile(`(?i)\b(electric|hybrid|diesel|gasoline|e85|flex[- ]fuel)\b`)
	driveTrainPattern  = regexp.MustCompile(`(?i)\b(4x4|4wd|awd|2wd|fwd|rwd|all[- ]wheel\s+drive|four[- ]wheel\s+drive)\b`)
)

func extractCloudSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	var models []string
	for _, m := range serviceModelPattern.FindAllStringSubmatch(corpus, -1) {
		if name, ok := serviceModelNames[strings.ToLower(m[1])]; ok {
			models = append(models, name)
		}
	}
	if models = deduplicateStrings(models); len(models) > 0 {
		specs["Service Model"] = strings.Join(models, ", ")
	}
	if m := impactLevelPattern.FindString(corpus); m != "" {
		specs["Impact Level"] = collapse(m)
	}
	switch {
	case support247Pattern.MatchString(corpus):
		specs["Support Level"] = "24/7 support"
	case businessHrsPattern.MatchString(corpus):
		specs["Support Level"] = "Business hours support"
	}
	return specs
}

func extractSoftwareSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	if v := firstGroup(corpus, versionPatterns...); v != "" {
		specs["Exact Version"] = v
	}
	if m := licenseTypePattern.FindStringSubmatch(corpus); m != nil {
		specs["License Type"] = titleCase(m[1])
	}
	if m := userCountPattern.FindStringSubmatch(corpus); m != nil {
		specs["User Count"] = m[1]
	}
	if m := deploymentPattern.FindStringSubmatch(corpus); m != nil {
		switch strings.ToLower(m[1]) {
		case "hybrid":
			specs["Deployment Model"] = "Hybrid"
		case "cloud-based", "cloud hosted":
			specs["Deployment Model"] = "Cloud"
		default:
			specs["Deployment Model"] = "On-premises"
		}
	}
	return specs
}

func extractHardwareSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	if v := firstGroup(corpus, modelPatterns...); v != "" {
		specs["Exact Model"] = v
	}
	if v := firstGroup(corpus, cpuPatterns...); v != "" {
		specs["CPU Requirements"] = v
	}
	if v := firstGroup(corpus, memoryPatterns...); v != "" {
		specs["Memory Requirements"] = v
	}
	if v := firstGroup(corpus, storagePatterns...); v != "" {
		specs["Storage Requirements"] = v
	}
	if m := formFactorPattern.FindString(corpus); m != "" {
		specs["Form Factor"] = collapse(m)
	}
	return specs
}

func extractMedicalSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	switch {
	case fdaNumberPattern.MatchString(corpus):
		specs["FDA Approval Number"] = fdaNumberPattern.FindString(corpus)
	case fda510kPattern.MatchString(corpus):
		specs["FDA Approval Number"] = "510(k) clearance required"
	}
	if m := deviceClassPattern.FindStringSubmatch(corpus); m != nil {
		specs["Medical Device Class"] = "Class " + strings.ToUpper(m[1])
	}
	if m := calibrationPattern.FindString(corpus); m != "" && len(m) <= 120 {
		specs["Calibration Requirements"] = collapse(m)
	}
	if m := sterilizationPattern.FindString(corpus); m != "" {
		specs["Sterilization Method"] = collapse(m)
	}
	return specs
}

func extractConstructionSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	var codes []string
	for _, m := range buildingCodePattern.FindAllString(corpus, -1) {
		codes = append(codes, collapse(m))
	}
	if codes = deduplicateStrings(codes); len(codes) > 0 {
		specs["Building Code Compliance"] = strings.Join(codes, ", ")
	}
	if m := materialGradePattern.FindString(corpus); m != "" {
		specs["Material Grade"] = collapse(m)
	}
	if m := loadPattern.FindString(corpus); m != "" {
		specs["Load Requirements"] = collapse(m)
	}
	if m := environmentalPattern.FindString(corpus); m != "" {
		specs["Environmental Rating"] = collapse(m)
	}
	if m := fireRatingPattern.FindString(corpus); m != "" {
		specs["Fire Rating"] = collapse(m)
	}
	return specs
}

func extractFurnitureSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	if m := furnitureMaterialPattern.FindString(corpus); m != "" {
		specs["Material"] = titleCase(m)
	}
	if m := dimensionsPattern.FindString(corpus); m != "" {
		specs["Dimensions"] = collapse(m)
	}
	if bifmaPattern.MatchString(corpus) {
		specs["BIFMA Certification"] = "BIFMA certified"
	}
	return specs
}

func extractVehicleSpecs(corpus string) map[string]string {
	specs := map[string]string{}
	if m := vehicleTypePattern.FindString(corpus); m != "" {
		specs["Vehicle Type"] = titleCase(m)
	}
	if m := fuelTypePattern.FindString(corpus); m != "" {
		specs["Fuel Type"] = titleCase(m)
	}
	if m := driveTrainPattern.FindString(corpus); m != "" {
		specs["Drive Train"] = strings.ToUpper(collapse(m))
	}
	return specs
}

// firstGroup returns the first capture group of the first pattern that matches.
func firstGroup(corpus string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(corpus); m != nil && len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
