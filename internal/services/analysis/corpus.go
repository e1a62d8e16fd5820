package analysis

import (
	"strings"

	"govcon/research/internal/models"
)

// AssembleCorpus joins every textual field of a solicitation into one normalized
// document. Empty fields are skipped; the remaining parts are separated by a blank line.
func AssembleCorpus(s models.Solicitation) string {
	parts := []string{
		s.Title,
		s.Description,
		s.SolicitationNumber,
		s.Agency,
		labelled("Location", s.Location),
		labelled("State", s.State),
		labelled("City", s.City),
		labelled("Contract Type", s.ContractType),
		labelled("Set Aside", s.SetAsideType),
		labelled("NAICS", s.NAICSCodes),
		labelled("PSC", s.PSCCodes),
		labelled("Deadline", s.DeadlineDate),
		labelled("Posted", s.PostedDate),
		labelled("Status", s.Status),
	}

	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return NormalizeText(strings.Join(kept, "\n\n"))
}

func labelled(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return label + ": " + value
}
