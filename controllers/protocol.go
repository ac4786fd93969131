package controllers

import (
	"net/http"
	"strings"

	"protocol-review-api/middleware"
	"protocol-review-api/models"
	"protocol-review-api/utils"
	"protocol-review-api/workflow"

	"github.com/gin-gonic/gin"
)

type protocolContentRequest struct {
	Content models.ProtocolContent `json:"content" binding:"required"`
}

// CreateProtocol opens a new DRAFT protocol owned by the caller.
func (pc *ProtocolController) CreateProtocol(c *gin.Context) {
	var req protocolContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Content.Title = utils.SanitizeInput(req.Content.Title)

	protocol, err := pc.protocols.Create(c.Request.Context(), middleware.CurrentUserID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Protocol created",
		"protocol": protocol,
	})
}

// ListProtocols returns the protocols visible to the caller, optionally filtered by ?status=a,b.
func (pc *ProtocolController) ListProtocols(c *gin.Context) {
	statuses, err := utils.ParseStatuses(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	protocols, err := pc.protocols.ListForUser(c.Request.Context(), systemActor(c), statuses...)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"protocols": protocols,
		"total":     len(protocols),
	})
}

// GetProtocol returns one protocol plus the transitions the caller may request.
func (pc *ProtocolController) GetProtocol(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	actor, ok := pc.viewer(c, protocolID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	protocol, err := pc.protocols.Get(ctx, protocolID)
	if err != nil {
		respondError(c, err)
		return
	}
	available, err := pc.engine.AvailableTransitions(ctx, protocolID, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"protocol":              protocol,
		"available_transitions": available,
		"editable":              protocol.IsEditable(),
		"roles":                 actor.Roles,
	})
}

// UpdateProtocolContent replaces the working content while the protocol is editable.
func (pc *ProtocolController) UpdateProtocolContent(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req protocolContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Content.Title = utils.SanitizeInput(req.Content.Title)

	protocol, err := pc.protocols.UpdateContent(c.Request.Context(), protocolID, systemActor(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Protocol content saved",
		"protocol": protocol,
	})
}

// ArchiveProtocol hides a protocol; its audit records are kept.
func (pc *ProtocolController) ArchiveProtocol(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.protocols.Archive(c.Request.Context(), protocolID, systemActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Protocol archived"})
}

// GetProtocolHistory returns the status ledger and the status it replays to.
func (pc *ProtocolController) GetProtocolHistory(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := pc.viewer(c, protocolID); !ok {
		return
	}

	entries, err := pc.ledger.ListByProtocol(c.Request.Context(), protocolID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{
		"success": true,
		"history": entries,
		"total":   len(entries),
	}
	if status, err := pc.ledger.Replay(c.Request.Context(), protocolID); err == nil {
		response["replayed_status"] = status
	} else {
		response["replay_error"] = err.Error()
	}
	c.JSON(http.StatusOK, response)
}

// GetWorkflow documents the transition graph with the roles guarding each edge.
func (pc *ProtocolController) GetWorkflow(c *gin.Context) {
	validator := pc.engine.Validator()
	type edgeView struct {
		From  models.ProtocolStatus `json:"from"`
		To    models.ProtocolStatus `json:"to"`
		Roles []models.Role         `json:"roles"`
	}

	edges := make([]edgeView, 0)
	for _, edge := range workflow.Edges() {
		edges = append(edges, edgeView{From: edge.From, To: edge.To, Roles: validator.RequiredRoles(edge)})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"statuses":        models.AllStatuses,
		"transitions":     edges,
		"required_fields": workflow.RequiredFields(),
	})
}

func parseRemark(raw string) string {
	return strings.TrimSpace(utils.SanitizeInput(raw))
}
