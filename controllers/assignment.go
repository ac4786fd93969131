package controllers

import (
	"net/http"

	"protocol-review-api/models"

	"github.com/gin-gonic/gin"
)

type userRequest struct {
	UserID int `json:"user_id" binding:"required"`
}

// ListReviewers returns every reviewer assignment of a protocol.
func (pc *ProtocolController) ListReviewers(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := pc.viewer(c, protocolID); !ok {
		return
	}

	assignments, err := pc.assignments.ListReviewers(c.Request.Context(), protocolID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reviewers": assignments, "total": len(assignments)})
}

// AssignReviewer adds a committee reviewer. Route is restricted to admin and chair.
func (pc *ProtocolController) AssignReviewer(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := pc.assignments.AssignReviewer(c.Request.Context(), protocolID, req.UserID, systemActor(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Reviewer assigned", "assignment": assignment})
}

// CompleteAssignment closes a reviewer assignment. Only the reviewer or an admin may.
func (pc *ProtocolController) CompleteAssignment(c *gin.Context) {
	assignmentID, ok := paramID(c, "assignment_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	actor := systemActor(c)

	existing, err := pc.assignments.GetAssignment(ctx, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.ReviewerID != actor.ID && !actor.Has(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the assigned reviewer can complete this review"})
		return
	}

	assignment, err := pc.assignments.CompleteAssignment(ctx, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Review completed", "assignment": assignment})
}

// ListCoEditors returns the active co-editor grants of a protocol.
func (pc *ProtocolController) ListCoEditors(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := pc.viewer(c, protocolID); !ok {
		return
	}

	grants, err := pc.assignments.ListCoEditors(c.Request.Context(), protocolID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "co_editors": grants, "total": len(grants)})
}

func (pc *ProtocolController) canManageCoEditors(c *gin.Context, protocolID int) (int, bool) {
	actor, ok := pc.viewer(c, protocolID)
	if !ok {
		return 0, false
	}
	if !actor.Has(models.RoleOwner) && !actor.Has(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the owner or an administrator can manage co-editors"})
		return 0, false
	}
	return actor.ID, true
}

// GrantCoEditor grants co-editor rights outside of a transition.
func (pc *ProtocolController) GrantCoEditor(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actorID, ok := pc.canManageCoEditors(c, protocolID)
	if !ok {
		return
	}

	grant, err := pc.assignments.GrantCoEditor(c.Request.Context(), protocolID, req.UserID, actorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Co-editor added", "co_editor": grant})
}

// RevokeCoEditor ends an active co-editor grant.
func (pc *ProtocolController) RevokeCoEditor(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	granteeID, ok := paramID(c, "user_id")
	if !ok {
		return
	}
	actorID, ok := pc.canManageCoEditors(c, protocolID)
	if !ok {
		return
	}

	if err := pc.assignments.RevokeCoEditor(c.Request.Context(), protocolID, granteeID, actorID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Co-editor removed"})
}
