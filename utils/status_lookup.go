package utils

import (
	"fmt"
	"strings"

	"protocol-review-api/models"
)

var (
	statusSynonyms = map[models.ProtocolStatus][]string{
		models.StatusDraft:                  {"draft"},
		models.StatusSubmitted:              {"submitted", "submit"},
		models.StatusPreReview:              {"pre_review", "pre-review", "prereview", "screening"},
		models.StatusUnderReview:            {"under_review", "under-review", "review", "in_review"},
		models.StatusRevisionRequired:       {"revision_required", "revision", "revise", "needs_revision"},
		models.StatusResubmitted:            {"resubmitted", "resubmit"},
		models.StatusApproved:               {"approved", "approve"},
		models.StatusApprovedWithConditions: {"approved_with_conditions", "conditional", "conditionally_approved"},
		models.StatusRejected:               {"rejected", "reject"},
		models.StatusDeferred:               {"deferred", "defer"},
		models.StatusSuspended:              {"suspended", "suspend"},
		models.StatusClosed:                 {"closed", "close"},
	}
	statusAliasToCanonical = buildStatusAliasMap()
)

func buildStatusAliasMap() map[string]models.ProtocolStatus {
	aliasMap := make(map[string]models.ProtocolStatus)
	for canonical, synonyms := range statusSynonyms {
		aliasMap[normalizeStatus(string(canonical))] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatus(alias); normalized != "" {
				aliasMap[normalized] = canonical
			}
		}
	}
	return aliasMap
}

func normalizeStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseStatus resolves a status name or alias, ignoring case and surrounding spaces.
func ParseStatus(raw string) (models.ProtocolStatus, error) {
	if status, ok := statusAliasToCanonical[normalizeStatus(raw)]; ok {
		return status, nil
	}
	return "", fmt.Errorf("unknown protocol status %q", raw)
}

// ParseStatuses resolves a comma separated filter; blanks are skipped.
func ParseStatuses(raw string) ([]models.ProtocolStatus, error) {
	out := make([]models.ProtocolStatus, 0)
	seen := make(map[models.ProtocolStatus]struct{})
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		status, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[status]; ok {
			continue
		}
		seen[status] = struct{}{}
		out = append(out, status)
	}
	return out, nil
}
