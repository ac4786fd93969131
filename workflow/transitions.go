// Package workflow holds the pure rules of the protocol review lifecycle: the
// transition graph, the role table guarding each edge and the pre-submission
// completeness gate. Nothing here touches storage.
package workflow

import (
	"sort"

	"protocol-review-api/models"
)

// SideEffect is work the engine must perform after an allowed transition.
type SideEffect string

const (
	EffectCreateVersion      SideEffect = "CREATE_VERSION"
	EffectOfferCoEditorGrant SideEffect = "OFFER_CO_EDITOR_GRANT"
)

// Edge is a directed move between two lifecycle states.
type Edge struct {
	From models.ProtocolStatus
	To   models.ProtocolStatus
}

var transitions = map[models.ProtocolStatus][]models.ProtocolStatus{
	models.StatusDraft:     {models.StatusSubmitted},
	models.StatusSubmitted: {models.StatusPreReview},
	models.StatusPreReview: {models.StatusUnderReview},
	models.StatusUnderReview: {
		models.StatusRevisionRequired,
		models.StatusApproved,
		models.StatusApprovedWithConditions,
		models.StatusRejected,
		models.StatusDeferred,
	},
	models.StatusRevisionRequired:       {models.StatusResubmitted},
	models.StatusResubmitted:            {models.StatusPreReview, models.StatusUnderReview},
	models.StatusApproved:               {models.StatusSuspended, models.StatusClosed},
	models.StatusApprovedWithConditions: {models.StatusSuspended, models.StatusClosed},
	models.StatusDeferred:               {models.StatusUnderReview, models.StatusClosed},
	models.StatusSuspended:              {models.StatusUnderReview, models.StatusClosed},
	models.StatusRejected:               {models.StatusClosed},
	models.StatusClosed:                 {},
}

// Targets returns the states reachable from current in one step.
func Targets(current models.ProtocolStatus) []models.ProtocolStatus {
	out := make([]models.ProtocolStatus, len(transitions[current]))
	copy(out, transitions[current])
	return out
}

// IsEdge reports whether from -> to is part of the lifecycle graph.
func IsEdge(from, to models.ProtocolStatus) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Edges lists every edge of the graph in a stable order.
func Edges() []Edge {
	edges := make([]Edge, 0, 20)
	for _, from := range models.AllStatuses {
		for _, to := range transitions[from] {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// RoleTable maps each edge to the roles allowed to trigger it. Any one role suffices.
type RoleTable map[Edge][]models.Role

var (
	decisionRoles  = []models.Role{models.RoleReviewer, models.RoleVeterinarian, models.RoleChair, models.RoleAdmin}
	oversightRoles = []models.Role{models.RoleChair, models.RoleAdmin}
)

// DefaultRoleTable returns the committee's standard authority matrix.
func DefaultRoleTable() RoleTable {
	table := RoleTable{
		{models.StatusDraft, models.StatusSubmitted}:              {models.RoleOwner},
		{models.StatusRevisionRequired, models.StatusResubmitted}: {models.RoleOwner},
		{models.StatusSubmitted, models.StatusPreReview}:          {models.RoleAdmin},
		{models.StatusResubmitted, models.StatusPreReview}:        {models.RoleAdmin},
		{models.StatusPreReview, models.StatusUnderReview}:        oversightRoles,
		{models.StatusResubmitted, models.StatusUnderReview}:      oversightRoles,
		{models.StatusDeferred, models.StatusUnderReview}:         oversightRoles,
		{models.StatusSuspended, models.StatusUnderReview}:        oversightRoles,
		{models.StatusApproved, models.StatusSuspended}:           {models.RoleVeterinarian, models.RoleChair, models.RoleAdmin},
		{models.StatusApprovedWithConditions, models.StatusSuspended}: {
			models.RoleVeterinarian, models.RoleChair, models.RoleAdmin,
		},
	}
	for _, to := range transitions[models.StatusUnderReview] {
		table[Edge{models.StatusUnderReview, to}] = decisionRoles
	}
	for _, from := range []models.ProtocolStatus{
		models.StatusApproved,
		models.StatusApprovedWithConditions,
		models.StatusDeferred,
		models.StatusSuspended,
		models.StatusRejected,
	} {
		table[Edge{from, models.StatusClosed}] = oversightRoles
	}
	return table
}

// With returns a copy of t where edge requires roles.
func (t RoleTable) With(edge Edge, roles ...models.Role) RoleTable {
	out := make(RoleTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[edge] = append([]models.Role(nil), roles...)
	return out
}

// Decision is the validator's verdict on one requested transition.
type Decision struct {
	Allowed bool
	Err     error
	Effects []SideEffect
}

// Has reports whether the decision carries effect.
func (d Decision) Has(effect SideEffect) bool {
	for _, e := range d.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// Validator decides whether an actor may move a protocol between two states.
// It is safe for concurrent use; the role table is never mutated after construction.
type Validator struct {
	roles RoleTable
}

func NewValidator(roles RoleTable) *Validator {
	if roles == nil {
		roles = DefaultRoleTable()
	}
	return &Validator{roles: roles}
}

// Validate checks current -> target for an actor holding actorRoles.
func (v *Validator) Validate(current, target models.ProtocolStatus, actorRoles []models.Role) Decision {
	deny := func(reason error) Decision {
		return Decision{Err: &DenialError{From: current, To: target, Reason: reason}}
	}

	if current.IsTerminal() {
		return deny(ErrTerminalState)
	}
	if !IsEdge(current, target) {
		return deny(ErrInvalidTransition)
	}
	if !v.authorized(Edge{From: current, To: target}, actorRoles) {
		return deny(ErrUnauthorized)
	}

	decision := Decision{Allowed: true}
	if isSubmissionEdge(current, target) {
		decision.Effects = append(decision.Effects, EffectCreateVersion)
	}
	if target == models.StatusPreReview {
		decision.Effects = append(decision.Effects, EffectOfferCoEditorGrant)
	}
	return decision
}

// AllowedTargets lists the states actorRoles may move current into.
func (v *Validator) AllowedTargets(current models.ProtocolStatus, actorRoles []models.Role) []models.ProtocolStatus {
	out := make([]models.ProtocolStatus, 0)
	for _, target := range transitions[current] {
		if v.Validate(current, target, actorRoles).Allowed {
			out = append(out, target)
		}
	}
	return out
}

// RequiredRoles returns the roles guarding edge, sorted for display.
func (v *Validator) RequiredRoles(edge Edge) []models.Role {
	roles := append([]models.Role(nil), v.roles[edge]...)
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

func (v *Validator) authorized(edge Edge, actorRoles []models.Role) bool {
	for _, required := range v.roles[edge] {
		if models.HasRole(actorRoles, required) {
			return true
		}
	}
	return false
}

func isSubmissionEdge(from, to models.ProtocolStatus) bool {
	return (from == models.StatusDraft && to == models.StatusSubmitted) ||
		(from == models.StatusRevisionRequired && to == models.StatusResubmitted)
}

// RequiresVersion reports whether moving into target snapshots the working content.
func RequiresVersion(target models.ProtocolStatus) bool {
	return target == models.StatusSubmitted || target == models.StatusResubmitted
}
