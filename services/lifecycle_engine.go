package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"protocol-review-api/config"
	"protocol-review-api/models"
	"protocol-review-api/workflow"

	"gorm.io/gorm"
)

// TransitionRequest asks the engine to move a protocol to Target.
type TransitionRequest struct {
	ProtocolID int
	Target     models.ProtocolStatus
	Actor      Actor
	Remark     string
	// CoEditorGranteeID is only honoured when Target is PRE_REVIEW.
	CoEditorGranteeID *int
}

// TransitionResult describes a committed transition. Warnings carry failures of
// optional follow-up work that did not undo the transition.
type TransitionResult struct {
	Protocol *models.Protocol
	Version  *models.ProtocolVersion
	Entry    *models.StatusHistoryEntry
	Grant    *models.CoEditorAssignment
	Warnings []error
}

// TransitionEvent is published to listeners after a transition commits.
type TransitionEvent struct {
	ProtocolID int
	Title      string
	OwnerID    int
	From       models.ProtocolStatus
	To         models.ProtocolStatus
	ActorID    int
	Remark     string
	VersionNo  int
	At         time.Time
}

// TransitionListener reacts to committed transitions. Its errors are logged and never
// affect the transition.
type TransitionListener interface {
	OnTransition(ctx context.Context, event TransitionEvent) error
}

// LifecycleEngine moves protocols through the review workflow.
type LifecycleEngine struct {
	db          *gorm.DB
	validator   *workflow.Validator
	versions    *VersionStore
	ledger      *StatusLedger
	assignments *AssignmentRegistry
	locks       *ProtocolLocks
	listeners   []TransitionListener
	logger      *log.Logger
	now         func() time.Time
}

func NewLifecycleEngine(db *gorm.DB, validator *workflow.Validator, versions *VersionStore, ledger *StatusLedger, assignments *AssignmentRegistry, locks *ProtocolLocks) *LifecycleEngine {
	if validator == nil {
		validator = workflow.NewValidator(nil)
	}
	if locks == nil {
		locks = NewProtocolLocks()
	}
	return &LifecycleEngine{
		db:          db,
		validator:   validator,
		versions:    versions,
		ledger:      ledger,
		assignments: assignments,
		locks:       locks,
		logger:      config.Logger("lifecycle"),
		now:         time.Now,
	}
}

// Subscribe registers a listener. Not safe to call concurrently with transitions.
func (e *LifecycleEngine) Subscribe(listener TransitionListener) {
	e.listeners = append(e.listeners, listener)
}

func (e *LifecycleEngine) Validator() *workflow.Validator {
	return e.validator
}

// Submit sends a DRAFT protocol to the committee on behalf of its owner.
func (e *LifecycleEngine) Submit(ctx context.Context, protocolID, actorID int) (*TransitionResult, error) {
	return e.submitAs(ctx, protocolID, actorID, models.StatusSubmitted, "")
}

// Resubmit returns a revised protocol to the committee on behalf of its owner.
func (e *LifecycleEngine) Resubmit(ctx context.Context, protocolID, actorID int, remark string) (*TransitionResult, error) {
	return e.submitAs(ctx, protocolID, actorID, models.StatusResubmitted, remark)
}

func (e *LifecycleEngine) submitAs(ctx context.Context, protocolID, actorID int, target models.ProtocolStatus, remark string) (*TransitionResult, error) {
	protocol, err := loadProtocol(e.db.WithContext(ctx), protocolID, false)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckCompleteness(protocol.Content(), target); err != nil {
		return nil, err
	}

	// Ownership is the only authority for submitting; no other role is assumed.
	var roles []models.Role
	if protocol.OwnerID == actorID {
		roles = []models.Role{models.RoleOwner}
	}
	return e.RequestTransition(ctx, TransitionRequest{
		ProtocolID: protocolID,
		Target:     target,
		Actor:      Actor{ID: actorID, Roles: roles},
		Remark:     remark,
	})
}

// RequestTransition validates and applies one status change. The version snapshot,
// status write and ledger row commit together or not at all.
func (e *LifecycleEngine) RequestTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	unlock := e.locks.Lock(req.ProtocolID)
	defer unlock()

	var (
		from    models.ProtocolStatus
		written *models.Protocol
		result  TransitionResult
	)
	now := clock(e.now)()

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		protocol, err := loadProtocol(tx, req.ProtocolID, true)
		if err != nil {
			return err
		}
		from = protocol.Status

		decision := e.validator.Validate(from, req.Target, req.Actor.Roles)
		if !decision.Allowed {
			return decision.Err
		}

		updates := map[string]interface{}{
			"status":       req.Target,
			"lock_version": gorm.Expr("lock_version + 1"),
			"updated_at":   now,
		}

		if decision.Has(workflow.EffectCreateVersion) {
			content := protocol.Content()
			if err := workflow.CheckCompleteness(content, req.Target); err != nil {
				return err
			}
			version, err := e.versions.createVersion(tx, protocol.ProtocolID, content, req.Actor.ID, now)
			if err != nil {
				return err
			}
			result.Version = version
			updates["current_version_id"] = version.VersionID
		}

		write := tx.Model(&models.Protocol{}).
			Where("protocol_id = ? AND status = ? AND lock_version = ?", protocol.ProtocolID, from, protocol.LockVersion).
			Updates(updates)
		if write.Error != nil {
			return fmt.Errorf("update protocol status: %w", write.Error)
		}
		if write.RowsAffected != 1 {
			return ErrConcurrentUpdate
		}
		protocol.Status = req.Target
		protocol.LockVersion++
		protocol.UpdatedAt = now
		if result.Version != nil {
			protocol.CurrentVersionID = &result.Version.VersionID
		}
		written = protocol

		fromStatus := from
		entry := models.StatusHistoryEntry{
			ProtocolID: protocol.ProtocolID,
			FromStatus: &fromStatus,
			ToStatus:   req.Target,
			ActorID:    req.Actor.ID,
			CreatedAt:  now,
		}
		if remark := strings.TrimSpace(req.Remark); remark != "" {
			entry.Remark = &remark
		}
		if err := e.ledger.append(tx, &entry); err != nil {
			return err
		}
		result.Entry = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Printf("protocol %d: %s -> %s by user %d", req.ProtocolID, from, req.Target, req.Actor.ID)

	if req.Target == models.StatusPreReview && req.CoEditorGranteeID != nil {
		grant, err := e.assignments.grantCoEditor(ctx, req.ProtocolID, *req.CoEditorGranteeID, req.Actor.ID)
		if err != nil {
			e.logger.Printf("protocol %d: co-editor grant for user %d failed: %v", req.ProtocolID, *req.CoEditorGranteeID, err)
			result.Warnings = append(result.Warnings, fmt.Errorf("co-editor grant: %w", err))
		} else {
			result.Grant = grant
		}
	}

	// The transition has committed; a failed reload falls back to the row as written.
	protocol, err := loadProtocol(e.db.WithContext(ctx), req.ProtocolID, false)
	if err != nil {
		e.logger.Printf("protocol %d: reload after transition failed: %v", req.ProtocolID, err)
		result.Warnings = append(result.Warnings, fmt.Errorf("reload protocol: %w", err))
		protocol = written
	}
	result.Protocol = protocol

	e.publish(ctx, protocol, from, &result)
	return &result, nil
}

func (e *LifecycleEngine) publish(ctx context.Context, protocol *models.Protocol, from models.ProtocolStatus, result *TransitionResult) {
	if len(e.listeners) == 0 {
		return
	}
	event := TransitionEvent{
		ProtocolID: protocol.ProtocolID,
		Title:      protocol.Title,
		OwnerID:    protocol.OwnerID,
		From:       from,
		To:         result.Entry.ToStatus,
		ActorID:    result.Entry.ActorID,
		At:         result.Entry.CreatedAt,
	}
	if result.Entry.Remark != nil {
		event.Remark = *result.Entry.Remark
	}
	if result.Version != nil {
		event.VersionNo = result.Version.VersionNo
	}
	for _, listener := range e.listeners {
		if err := listener.OnTransition(ctx, event); err != nil {
			e.logger.Printf("protocol %d: transition listener failed: %v", protocol.ProtocolID, err)
		}
	}
}

// AvailableTransitions lists what actor could do with protocolID right now.
func (e *LifecycleEngine) AvailableTransitions(ctx context.Context, protocolID int, actor Actor) ([]models.ProtocolStatus, error) {
	protocol, err := loadProtocol(e.db.WithContext(ctx), protocolID, false)
	if err != nil {
		return nil, err
	}
	return e.validator.AllowedTargets(protocol.Status, actor.Roles), nil
}

// IsDenial reports whether err is a validator refusal rather than an infrastructure failure.
func IsDenial(err error) bool {
	var denial *workflow.DenialError
	return errors.As(err, &denial)
}
