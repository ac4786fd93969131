package services

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrEmptyBody             = errors.New("comment body is empty")
	ErrProtocolNotReviewable = errors.New("protocol is not open for review comments")
	ErrVersionNotCurrent     = errors.New("comments must target the latest protocol version")
	ErrAlreadyResolved       = errors.New("comment is already resolved")
	ErrAlreadyCompleted      = errors.New("review assignment is already completed")
	ErrDuplicateGrant        = errors.New("co-editor grant already active")
	ErrProtocolNotEditable   = errors.New("protocol content is read-only in its current status")
	ErrAttachmentsLocked     = errors.New("attachments are read-only in the current status")
	ErrConcurrentUpdate      = errors.New("protocol was modified concurrently")
	ErrForbidden             = errors.New("actor may not modify this protocol")
	ErrLedgerInconsistent    = errors.New("status history does not form a valid chain")
)
