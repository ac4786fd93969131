package controllers

import (
	"net/http"

	"protocol-review-api/models"

	"github.com/gin-gonic/gin"
)

// ListVersions returns every submitted snapshot of a protocol.
func (pc *ProtocolController) ListVersions(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := pc.viewer(c, protocolID); !ok {
		return
	}

	versions, err := pc.versions.ListVersions(c.Request.Context(), protocolID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "versions": versions, "total": len(versions)})
}

// loadVersion fetches a version and checks the caller may see its protocol.
func (pc *ProtocolController) loadVersion(c *gin.Context) (*models.ProtocolVersion, bool) {
	versionID, ok := paramID(c, "version_id")
	if !ok {
		return nil, false
	}
	version, err := pc.versions.GetVersion(c.Request.Context(), versionID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if _, ok := pc.viewer(c, version.ProtocolID); !ok {
		return nil, false
	}
	return version, true
}

func (pc *ProtocolController) GetVersion(c *gin.Context) {
	version, ok := pc.loadVersion(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "version": version})
}

// ListComments returns the comment thread of one version, oldest first.
func (pc *ProtocolController) ListComments(c *gin.Context) {
	version, ok := pc.loadVersion(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	comments, err := pc.comments.ListByVersion(ctx, version.VersionID)
	if err != nil {
		respondError(c, err)
		return
	}
	unresolved, err := pc.comments.CountUnresolved(ctx, version.VersionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"comments":   comments,
		"total":      len(comments),
		"unresolved": unresolved,
	})
}

type commentRequest struct {
	Body string `json:"body"`
}

// AddVersionComment comments on a specific version, which must be the latest one.
func (pc *ProtocolController) AddVersionComment(c *gin.Context) {
	version, ok := pc.loadVersion(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := systemActor(c)
	comment, err := pc.comments.AddComment(c.Request.Context(), version.VersionID, actor.ID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// AddProtocolComment comments on the protocol's current version.
func (pc *ProtocolController) AddProtocolComment(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, ok := pc.viewer(c, protocolID)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := pc.comments.AddCommentToLatest(c.Request.Context(), protocolID, actor.ID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// ResolveComment marks a comment resolved. Resolving twice is a conflict.
func (pc *ProtocolController) ResolveComment(c *gin.Context) {
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	existing, err := pc.comments.Get(ctx, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	actor, ok := pc.viewer(c, existing.ProtocolID)
	if !ok {
		return
	}

	comment, err := pc.comments.Resolve(ctx, commentID, actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment resolved", "comment": comment})
}
