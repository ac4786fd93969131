package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"protocol-review-api/middleware"
	"protocol-review-api/services"
	"protocol-review-api/workflow"

	"github.com/gin-gonic/gin"
)

// ProtocolController binds the review engine to HTTP. Every handler resolves the
// caller into a services.Actor and passes it explicitly.
type ProtocolController struct {
	protocols   *services.ProtocolService
	engine      *services.LifecycleEngine
	versions    *services.VersionStore
	comments    *services.CommentThread
	assignments *services.AssignmentRegistry
	ledger      *services.StatusLedger
	attachments *services.AttachmentService
}

// Deps groups the services a ProtocolController needs.
type Deps struct {
	Protocols   *services.ProtocolService
	Engine      *services.LifecycleEngine
	Versions    *services.VersionStore
	Comments    *services.CommentThread
	Assignments *services.AssignmentRegistry
	Ledger      *services.StatusLedger
	Attachments *services.AttachmentService
}

func NewProtocolController(deps Deps) *ProtocolController {
	return &ProtocolController{
		protocols:   deps.Protocols,
		engine:      deps.Engine,
		versions:    deps.Versions,
		comments:    deps.Comments,
		assignments: deps.Assignments,
		ledger:      deps.Ledger,
		attachments: deps.Attachments,
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// viewer resolves the caller against protocolID and rejects callers that are
// neither linked to it nor admin/chair.
func (pc *ProtocolController) viewer(c *gin.Context, protocolID int) (services.Actor, bool) {
	actor, err := pc.protocols.ResolveActor(c.Request.Context(), protocolID, middleware.CurrentUserID(c), middleware.CurrentRoles(c))
	if err != nil {
		respondError(c, err)
		return actor, false
	}
	if !actor.CanView() {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this protocol"})
		return actor, false
	}
	return actor, true
}

func systemActor(c *gin.Context) services.Actor {
	return services.Actor{ID: middleware.CurrentUserID(c), Roles: middleware.CurrentRoles(c)}
}

// respondError maps engine errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	detail := gin.H{}

	var incomplete *workflow.IncompleteContentError
	switch {
	case errors.As(err, &incomplete):
		status, code = http.StatusUnprocessableEntity, "INCOMPLETE_CONTENT"
		detail["field"] = incomplete.Field
	case errors.Is(err, workflow.ErrTerminalState):
		status, code = http.StatusConflict, "TERMINAL_STATE"
	case errors.Is(err, workflow.ErrInvalidTransition):
		status, code = http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, workflow.ErrUnauthorized):
		status, code = http.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrDuplicateGrant):
		status, code = http.StatusConflict, "DUPLICATE_GRANT"
	case errors.Is(err, services.ErrAlreadyResolved):
		status, code = http.StatusConflict, "ALREADY_RESOLVED"
	case errors.Is(err, services.ErrAlreadyCompleted):
		status, code = http.StatusConflict, "ALREADY_COMPLETED"
	case errors.Is(err, services.ErrConcurrentUpdate):
		status, code = http.StatusConflict, "CONCURRENT_UPDATE"
	case errors.Is(err, services.ErrEmptyBody):
		status, code = http.StatusUnprocessableEntity, "EMPTY_BODY"
	case errors.Is(err, services.ErrProtocolNotReviewable):
		status, code = http.StatusUnprocessableEntity, "PROTOCOL_NOT_REVIEWABLE"
	case errors.Is(err, services.ErrVersionNotCurrent):
		status, code = http.StatusUnprocessableEntity, "VERSION_NOT_CURRENT"
	case errors.Is(err, services.ErrProtocolNotEditable):
		status, code = http.StatusUnprocessableEntity, "PROTOCOL_NOT_EDITABLE"
	case errors.Is(err, services.ErrAttachmentsLocked):
		status, code = http.StatusUnprocessableEntity, "ATTACHMENTS_LOCKED"
	}

	detail["error"] = err.Error()
	detail["code"] = code
	if status == http.StatusInternalServerError {
		detail["error"] = "Internal server error"
		_ = c.Error(err)
	}
	c.JSON(status, detail)
}
