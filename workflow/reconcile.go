package workflow

import (
	"strings"

	"protocol-review-api/models"
)

// ContentDefaults are institution-level values used when the submitter leaves a field blank.
type ContentDefaults struct {
	FacilityName     string
	FacilityBuilding string
	FundingSource    string
}

// Reconcile fills blank optional fields of content from defaults, one field at a time.
// Fields the submitter already set are never overwritten.
func Reconcile(content models.ProtocolContent, defaults ContentDefaults) models.ProtocolContent {
	content.Title = strings.TrimSpace(content.Title)
	content.Facility.Name = fillBlank(content.Facility.Name, defaults.FacilityName)
	content.Facility.Building = fillBlank(content.Facility.Building, defaults.FacilityBuilding)
	content.Classification.FundingSource = fillBlank(content.Classification.FundingSource, defaults.FundingSource)
	return content
}

func fillBlank(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
