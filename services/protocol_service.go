package services

import (
	"context"
	"time"

	"protocol-review-api/models"
	"protocol-review-api/workflow"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProtocolService covers the aggregate's own lifecycle: creation, content edits,
// listing and archival. Status changes go through LifecycleEngine.
type ProtocolService struct {
	db          *gorm.DB
	ledger      *StatusLedger
	assignments *AssignmentRegistry
	locks       *ProtocolLocks
	defaults    workflow.ContentDefaults
	now         func() time.Time
}

func NewProtocolService(db *gorm.DB, ledger *StatusLedger, assignments *AssignmentRegistry, locks *ProtocolLocks, defaults workflow.ContentDefaults) *ProtocolService {
	if locks == nil {
		locks = NewProtocolLocks()
	}
	return &ProtocolService{
		db:          db,
		ledger:      ledger,
		assignments: assignments,
		locks:       locks,
		defaults:    defaults,
		now:         time.Now,
	}
}

// Create opens a DRAFT protocol owned by ownerID and records its creation in the ledger.
func (s *ProtocolService) Create(ctx context.Context, ownerID int, content models.ProtocolContent) (*models.Protocol, error) {
	content = workflow.Reconcile(content, s.defaults)
	now := clock(s.now)()

	protocol := models.Protocol{
		Title:          content.Title,
		Status:         models.StatusDraft,
		WorkingContent: datatypes.NewJSONType(content),
		OwnerID:        ownerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&protocol).Error; err != nil {
			return err
		}
		return s.ledger.append(tx, &models.StatusHistoryEntry{
			ProtocolID: protocol.ProtocolID,
			ToStatus:   models.StatusDraft,
			ActorID:    ownerID,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &protocol, nil
}

func (s *ProtocolService) Get(ctx context.Context, protocolID int) (*models.Protocol, error) {
	return loadProtocol(s.db.WithContext(ctx), protocolID, false)
}

// UpdateContent replaces the working content while the protocol is editable.
// Only the owner or an active co-editor may edit.
func (s *ProtocolService) UpdateContent(ctx context.Context, protocolID int, actor Actor, content models.ProtocolContent) (*models.Protocol, error) {
	unlock := s.locks.Lock(protocolID)
	defer unlock()

	content = workflow.Reconcile(content, s.defaults)
	db := s.db.WithContext(ctx)

	protocol, err := loadProtocol(db, protocolID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(ctx, protocol, actor); err != nil {
		return nil, err
	}
	if !protocol.IsEditable() {
		return nil, ErrProtocolNotEditable
	}

	result := db.Model(&models.Protocol{}).
		Where("protocol_id = ? AND status IN ? AND lock_version = ?", protocolID, editableStatuses(), protocol.LockVersion).
		Updates(map[string]interface{}{
			"title":           content.Title,
			"working_content": datatypes.NewJSONType(content),
			"lock_version":    gorm.Expr("lock_version + 1"),
			"updated_at":      clock(s.now)(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, ErrConcurrentUpdate
	}
	return loadProtocol(db, protocolID, false)
}

func (s *ProtocolService) authorizeEdit(ctx context.Context, protocol *models.Protocol, actor Actor) error {
	if protocol.OwnerID == actor.ID {
		return nil
	}
	ok, err := s.assignments.IsActiveCoEditor(ctx, protocol.ProtocolID, actor.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// ListForUser returns the protocols actor can see: all of them for oversight roles,
// otherwise owned, co-edited or assigned ones. Status filters are optional.
func (s *ProtocolService) ListForUser(ctx context.Context, actor Actor, statuses ...models.ProtocolStatus) ([]models.Protocol, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Protocol{}).Where("archived_at IS NULL")

	if !actor.IsOversight() {
		coEdited := db.Model(&models.CoEditorAssignment{}).
			Select("protocol_id").
			Where("grantee_id = ? AND revoked_at IS NULL", actor.ID)
		assigned := db.Model(&models.ReviewAssignment{}).
			Select("protocol_id").
			Where("reviewer_id = ?", actor.ID)
		query = query.Where("owner_id = ? OR protocol_id IN (?) OR protocol_id IN (?)", actor.ID, coEdited, assigned)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var protocols []models.Protocol
	if err := query.Order("updated_at DESC, protocol_id DESC").Find(&protocols).Error; err != nil {
		return nil, err
	}
	return protocols, nil
}

// Archive hides a protocol from listings. Versions, comments, assignments and the
// ledger stay untouched. Owners may only archive their own drafts.
func (s *ProtocolService) Archive(ctx context.Context, protocolID int, actor Actor) error {
	unlock := s.locks.Lock(protocolID)
	defer unlock()

	db := s.db.WithContext(ctx)
	protocol, err := loadProtocol(db, protocolID, false)
	if err != nil {
		return err
	}
	if !actor.Has(models.RoleAdmin) {
		if protocol.OwnerID != actor.ID || protocol.Status != models.StatusDraft {
			return ErrForbidden
		}
	}

	now := clock(s.now)()
	result := db.Model(&models.Protocol{}).
		Where("protocol_id = ? AND archived_at IS NULL", protocolID).
		Updates(map[string]interface{}{"archived_at": now, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveActor adds the relational roles userID holds on protocolID (owner,
// co-editor, reviewer with open work) to the system roles from the identity provider.
func (s *ProtocolService) ResolveActor(ctx context.Context, protocolID, userID int, systemRoles []models.Role) (Actor, error) {
	actor := Actor{ID: userID, Roles: append([]models.Role(nil), systemRoles...)}

	protocol, err := loadProtocol(s.db.WithContext(ctx), protocolID, false)
	if err != nil {
		return actor, err
	}
	if protocol.OwnerID == userID {
		actor.Roles = append(actor.Roles, models.RoleOwner)
		actor.Linked = true
	}

	coEditor, err := s.assignments.IsActiveCoEditor(ctx, protocolID, userID)
	if err != nil {
		return actor, err
	}
	if coEditor {
		actor.Roles = append(actor.Roles, models.RoleCoEditor)
		actor.Linked = true
	}

	assigned, err := s.assignments.WasAssigned(ctx, protocolID, userID)
	if err != nil {
		return actor, err
	}
	if !assigned {
		return actor, nil
	}
	actor.Linked = true

	if !actor.Has(models.RoleReviewer) {
		open, err := s.assignments.HasOpenAssignment(ctx, protocolID, userID)
		if err != nil {
			return actor, err
		}
		if open {
			actor.Roles = append(actor.Roles, models.RoleReviewer)
		}
	}
	return actor, nil
}

func editableStatuses() []models.ProtocolStatus {
	return []models.ProtocolStatus{models.StatusDraft, models.StatusRevisionRequired}
}
