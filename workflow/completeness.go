package workflow

import (
	"strings"
	"time"

	"protocol-review-api/models"
)

// DateLayout is the calendar layout used by protocol content dates.
const DateLayout = "2006-01-02"

type contentRule struct {
	field string
	// guard limits the rule to content where it returns true; nil means always.
	guard func(c *models.ProtocolContent) bool
	check func(c *models.ProtocolContent) (ok bool, message string)
}

func present(get func(c *models.ProtocolContent) string) func(c *models.ProtocolContent) (bool, string) {
	return func(c *models.ProtocolContent) (bool, string) {
		return strings.TrimSpace(get(c)) != "", ""
	}
}

func validDate(get func(c *models.ProtocolContent) string) func(c *models.ProtocolContent) (bool, string) {
	return func(c *models.ProtocolContent) (bool, string) {
		raw := strings.TrimSpace(get(c))
		if raw == "" {
			return false, ""
		}
		if _, err := time.Parse(DateLayout, raw); err != nil {
			return false, "must be a YYYY-MM-DD date"
		}
		return true, ""
	}
}

func contactRules(prefix string, get func(c *models.ProtocolContent) *models.ContactBlock) []contentRule {
	return []contentRule{
		{field: prefix + ".name", check: present(func(c *models.ProtocolContent) string { return get(c).Name })},
		{field: prefix + ".department", check: present(func(c *models.ProtocolContent) string { return get(c).Department })},
		{field: prefix + ".email", check: present(func(c *models.ProtocolContent) string { return get(c).Email })},
		{field: prefix + ".phone", check: present(func(c *models.ProtocolContent) string { return get(c).Phone })},
	}
}

// completenessRules is evaluated top to bottom; the first failure wins.
var completenessRules = func() []contentRule {
	rules := []contentRule{
		{field: "title", check: present(func(c *models.ProtocolContent) string { return c.Title })},
		{field: "start_date", check: validDate(func(c *models.ProtocolContent) string { return c.StartDate })},
		{field: "end_date", check: validDate(func(c *models.ProtocolContent) string { return c.EndDate })},
		{field: "end_date", check: func(c *models.ProtocolContent) (bool, string) {
			start, _ := time.Parse(DateLayout, strings.TrimSpace(c.StartDate))
			end, _ := time.Parse(DateLayout, strings.TrimSpace(c.EndDate))
			if end.Before(start) {
				return false, "must not precede start_date"
			}
			return true, ""
		}},
		{field: "classification.category", check: present(func(c *models.ProtocolContent) string { return c.Classification.Category })},
		{field: "classification.research_type", check: present(func(c *models.ProtocolContent) string { return c.Classification.ResearchType })},
		{field: "classification.funding_source", check: present(func(c *models.ProtocolContent) string { return c.Classification.FundingSource })},
	}
	rules = append(rules, contactRules("principal_investigator", func(c *models.ProtocolContent) *models.ContactBlock { return &c.PrincipalInvestigator })...)
	rules = append(rules, contactRules("sponsor", func(c *models.ProtocolContent) *models.ContactBlock { return &c.Sponsor })...)
	rules = append(rules,
		contentRule{field: "facility.name", check: present(func(c *models.ProtocolContent) string { return c.Facility.Name })},
		contentRule{field: "facility.building", check: present(func(c *models.ProtocolContent) string { return c.Facility.Building })},
		contentRule{field: "facility.room", check: present(func(c *models.ProtocolContent) string { return c.Facility.Room })},
		contentRule{field: "species", check: present(func(c *models.ProtocolContent) string { return c.Species })},
		contentRule{field: "animal_count", check: func(c *models.ProtocolContent) (bool, string) {
			if c.AnimalCount <= 0 {
				return false, "must be greater than zero"
			}
			return true, ""
		}},
		contentRule{
			field: "procedures.anesthesia_type",
			guard: func(c *models.ProtocolContent) bool { return c.Procedures.UnderAnesthesia },
			check: present(func(c *models.ProtocolContent) string { return c.Procedures.AnesthesiaType }),
		},
		contentRule{
			field: "procedures.anesthesia_other",
			guard: func(c *models.ProtocolContent) bool {
				return c.Procedures.UnderAnesthesia && isOther(c.Procedures.AnesthesiaType, models.AnesthesiaOther)
			},
			check: present(func(c *models.ProtocolContent) string { return c.Procedures.AnesthesiaOther }),
		},
		contentRule{
			field: "procedures.euthanasia_method",
			guard: func(c *models.ProtocolContent) bool { return c.Procedures.EuthanasiaPlanned },
			check: present(func(c *models.ProtocolContent) string { return c.Procedures.EuthanasiaMethod }),
		},
		contentRule{
			field: "procedures.euthanasia_other",
			guard: func(c *models.ProtocolContent) bool {
				return c.Procedures.EuthanasiaPlanned && isOther(c.Procedures.EuthanasiaMethod, models.EuthanasiaOther)
			},
			check: present(func(c *models.ProtocolContent) string { return c.Procedures.EuthanasiaOther }),
		},
		contentRule{
			field: "procedures.surgery_description",
			guard: func(c *models.ProtocolContent) bool { return c.Procedures.Surgery },
			check: present(func(c *models.ProtocolContent) string { return c.Procedures.SurgeryDescription }),
		},
	)
	return rules
}()

func isOther(choice, other string) bool {
	return strings.EqualFold(strings.TrimSpace(choice), other)
}

// CheckCompleteness runs the pre-submission gate for transitions into target.
// Targets that do not snapshot content are not gated and always pass.
func CheckCompleteness(content models.ProtocolContent, target models.ProtocolStatus) error {
	if !RequiresVersion(target) {
		return nil
	}
	for _, rule := range completenessRules {
		if rule.guard != nil && !rule.guard(&content) {
			continue
		}
		if ok, message := rule.check(&content); !ok {
			return &IncompleteContentError{Field: rule.field, Message: message}
		}
	}
	return nil
}

// RequiredFields lists gate fields in evaluation order, conditional ones included.
func RequiredFields() []string {
	fields := make([]string, 0, len(completenessRules))
	seen := make(map[string]struct{}, len(completenessRules))
	for _, rule := range completenessRules {
		if _, ok := seen[rule.field]; ok {
			continue
		}
		seen[rule.field] = struct{}{}
		fields = append(fields, rule.field)
	}
	return fields
}
