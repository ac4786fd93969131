package services

import (
	"context"
	"fmt"

	"protocol-review-api/models"
	"protocol-review-api/workflow"

	"gorm.io/gorm"
)

// StatusLedger is the append-only audit trail of status changes.
type StatusLedger struct {
	db *gorm.DB
}

func NewStatusLedger(db *gorm.DB) *StatusLedger {
	return &StatusLedger{db: db}
}

// append writes entry inside tx; callers pair it with the status write it records.
func (l *StatusLedger) append(tx *gorm.DB, entry *models.StatusHistoryEntry) error {
	if entry.EntryID != 0 {
		return fmt.Errorf("status history entry %d already persisted", entry.EntryID)
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

// ListByProtocol returns the full trail of protocolID in append order.
func (l *StatusLedger) ListByProtocol(ctx context.Context, protocolID int) ([]models.StatusHistoryEntry, error) {
	var entries []models.StatusHistoryEntry
	if err := l.db.WithContext(ctx).
		Where("protocol_id = ?", protocolID).
		Order("entry_id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ReplayStatus folds a trail into the status it leads to. The trail must open
// with the creation row (no from status, to DRAFT) and every later row must
// leave the status the previous row entered along a lifecycle edge.
func ReplayStatus(entries []models.StatusHistoryEntry) (models.ProtocolStatus, error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: empty trail", ErrLedgerInconsistent)
	}

	first := entries[0]
	if first.FromStatus != nil || first.ToStatus != models.StatusDraft {
		return "", fmt.Errorf("%w: trail does not start with creation", ErrLedgerInconsistent)
	}

	current := first.ToStatus
	for _, entry := range entries[1:] {
		if entry.FromStatus == nil || *entry.FromStatus != current {
			return "", fmt.Errorf("%w: entry %d does not leave %s", ErrLedgerInconsistent, entry.EntryID, current)
		}
		if !workflow.IsEdge(current, entry.ToStatus) {
			return "", fmt.Errorf("%w: entry %d records %s -> %s", ErrLedgerInconsistent, entry.EntryID, current, entry.ToStatus)
		}
		current = entry.ToStatus
	}
	return current, nil
}

// Replay loads and folds the trail of protocolID.
func (l *StatusLedger) Replay(ctx context.Context, protocolID int) (models.ProtocolStatus, error) {
	entries, err := l.ListByProtocol(ctx, protocolID)
	if err != nil {
		return "", err
	}
	return ReplayStatus(entries)
}
