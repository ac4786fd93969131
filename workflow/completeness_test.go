package workflow

import (
	"testing"

	"protocol-review-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullContent() models.ProtocolContent {
	contact := models.ContactBlock{Name: "A. Researcher", Department: "Pharmacology", Email: "a@example.edu", Phone: "1234"}
	return models.ProtocolContent{
		Title:                 "Analgesic dosing in rats",
		StartDate:             "2024-01-15",
		EndDate:               "2024-12-31",
		Classification:        models.Classification{Category: "applied", ResearchType: "experimental", FundingSource: "grant"},
		PrincipalInvestigator: contact,
		Sponsor:               contact,
		Facility:              models.Facility{Name: "Vivarium", Building: "C", Room: "12"},
		Species:               "Rattus norvegicus",
		AnimalCount:           40,
	}
}

func failingField(t *testing.T, content models.ProtocolContent) string {
	t.Helper()
	err := CheckCompleteness(content, models.StatusSubmitted)
	if err == nil {
		return ""
	}
	var incomplete *IncompleteContentError
	require.ErrorAs(t, err, &incomplete)
	require.ErrorIs(t, err, ErrIncompleteContent)
	return incomplete.Field
}

func TestCheckCompleteness_CompleteContentPasses(t *testing.T) {
	assert.NoError(t, CheckCompleteness(fullContent(), models.StatusSubmitted))
	assert.NoError(t, CheckCompleteness(fullContent(), models.StatusResubmitted))
}

func TestCheckCompleteness_OnlyGatesSubmissions(t *testing.T) {
	for _, target := range models.AllStatuses {
		err := CheckCompleteness(models.ProtocolContent{}, target)
		if RequiresVersion(target) {
			assert.Error(t, err, target)
		} else {
			assert.NoError(t, err, target)
		}
	}
}

func TestCheckCompleteness_MissingFields(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(c *models.ProtocolContent)
	}{
		{"title", func(c *models.ProtocolContent) { c.Title = "  " }},
		{"start_date", func(c *models.ProtocolContent) { c.StartDate = "" }},
		{"start_date", func(c *models.ProtocolContent) { c.StartDate = "15/01/2024" }},
		{"end_date", func(c *models.ProtocolContent) { c.EndDate = "" }},
		{"end_date", func(c *models.ProtocolContent) { c.EndDate = "2023-12-31" }},
		{"classification.research_type", func(c *models.ProtocolContent) { c.Classification.ResearchType = "" }},
		{"principal_investigator.phone", func(c *models.ProtocolContent) { c.PrincipalInvestigator.Phone = "" }},
		{"sponsor.email", func(c *models.ProtocolContent) { c.Sponsor.Email = "" }},
		{"facility.room", func(c *models.ProtocolContent) { c.Facility.Room = "" }},
		{"species", func(c *models.ProtocolContent) { c.Species = "" }},
		{"animal_count", func(c *models.ProtocolContent) { c.AnimalCount = 0 }},
		{"animal_count", func(c *models.ProtocolContent) { c.AnimalCount = -3 }},
	}
	for _, tt := range tests {
		content := fullContent()
		tt.mutate(&content)
		assert.Equal(t, tt.field, failingField(t, content))
	}
}

func TestCheckCompleteness_FirstFailureWins(t *testing.T) {
	content := fullContent()
	content.Species = ""
	content.Title = ""
	content.Sponsor = models.ContactBlock{}
	assert.Equal(t, "title", failingField(t, content))

	content.Title = "back"
	assert.Equal(t, "sponsor.name", failingField(t, content))
}

func TestCheckCompleteness_EqualDatesAllowed(t *testing.T) {
	content := fullContent()
	content.EndDate = content.StartDate
	assert.NoError(t, CheckCompleteness(content, models.StatusSubmitted))
}

func TestCheckCompleteness_ConditionalProcedures(t *testing.T) {
	tests := []struct {
		name  string
		proc  models.Procedures
		field string
	}{
		{"no procedures", models.Procedures{}, ""},
		{"anesthesia without type", models.Procedures{UnderAnesthesia: true}, "procedures.anesthesia_type"},
		{"anesthesia with type", models.Procedures{UnderAnesthesia: true, AnesthesiaType: "isoflurane"}, ""},
		{"anesthesia other unexplained", models.Procedures{UnderAnesthesia: true, AnesthesiaType: "Other"}, "procedures.anesthesia_other"},
		{"anesthesia other explained", models.Procedures{UnderAnesthesia: true, AnesthesiaType: "other", AnesthesiaOther: "ketamine mix"}, ""},
		{"euthanasia without method", models.Procedures{EuthanasiaPlanned: true}, "procedures.euthanasia_method"},
		{"euthanasia other unexplained", models.Procedures{EuthanasiaPlanned: true, EuthanasiaMethod: "other"}, "procedures.euthanasia_other"},
		{"surgery undescribed", models.Procedures{Surgery: true}, "procedures.surgery_description"},
		{"surgery described", models.Procedures{Surgery: true, SurgeryDescription: "cannula implant"}, ""},
		{"anesthesia checked before surgery", models.Procedures{UnderAnesthesia: true, Surgery: true}, "procedures.anesthesia_type"},
		// Guarded fields stay unchecked while their guard is off, even when they hold data.
		{"stale anesthesia detail", models.Procedures{AnesthesiaType: "other"}, ""},
		{"stale euthanasia detail", models.Procedures{EuthanasiaMethod: "other"}, ""},
		{"stale surgery detail", models.Procedures{SurgeryDescription: "kept"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := fullContent()
			content.Procedures = tt.proc
			assert.Equal(t, tt.field, failingField(t, content))
		})
	}
}

func TestIncompleteContentError_Message(t *testing.T) {
	content := fullContent()
	content.AnimalCount = 0
	err := CheckCompleteness(content, models.StatusSubmitted)
	assert.EqualError(t, err, "incomplete content: animal_count must be greater than zero")

	content = fullContent()
	content.Title = ""
	err = CheckCompleteness(content, models.StatusSubmitted)
	assert.EqualError(t, err, "incomplete content: title is required")
}

func TestRequiredFields_Order(t *testing.T) {
	fields := RequiredFields()
	require.NotEmpty(t, fields)
	assert.Equal(t, "title", fields[0])
	assert.Equal(t, "procedures.surgery_description", fields[len(fields)-1])

	seen := map[string]bool{}
	for _, f := range fields {
		assert.False(t, seen[f], "duplicate field %s", f)
		seen[f] = true
	}
}
