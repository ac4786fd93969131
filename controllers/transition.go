package controllers

import (
	"net/http"

	"protocol-review-api/middleware"
	"protocol-review-api/services"
	"protocol-review-api/utils"

	"github.com/gin-gonic/gin"
)

type transitionRequest struct {
	Target     string `json:"target" binding:"required"`
	Remark     string `json:"remark"`
	CoEditorID *int   `json:"co_editor_id"`
}

func transitionResponse(c *gin.Context, message string, result *services.TransitionResult) {
	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.Error())
	}
	response := gin.H{
		"success":  true,
		"message":  message,
		"protocol": result.Protocol,
		"history":  result.Entry,
		"warnings": warnings,
	}
	if result.Version != nil {
		response["version"] = result.Version
	}
	if result.Grant != nil {
		response["co_editor"] = result.Grant
	}
	c.JSON(http.StatusOK, response)
}

// TransitionProtocol moves a protocol to the requested status.
func (pc *ProtocolController) TransitionProtocol(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := utils.ParseStatus(req.Target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor, ok := pc.viewer(c, protocolID)
	if !ok {
		return
	}

	result, err := pc.engine.RequestTransition(c.Request.Context(), services.TransitionRequest{
		ProtocolID:        protocolID,
		Target:            target,
		Actor:             actor,
		Remark:            parseRemark(req.Remark),
		CoEditorGranteeID: req.CoEditorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	transitionResponse(c, "Protocol status updated", result)
}

// SubmitProtocol submits a DRAFT protocol; only its owner may do so.
func (pc *ProtocolController) SubmitProtocol(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := pc.engine.Submit(c.Request.Context(), protocolID, middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	transitionResponse(c, "Protocol submitted", result)
}

// ResubmitProtocol returns a revised protocol to the committee.
func (pc *ProtocolController) ResubmitProtocol(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Remark string `json:"remark"`
	}
	// The body is optional.
	_ = c.ShouldBindJSON(&req)

	result, err := pc.engine.Resubmit(c.Request.Context(), protocolID, middleware.CurrentUserID(c), parseRemark(req.Remark))
	if err != nil {
		respondError(c, err)
		return
	}
	transitionResponse(c, "Protocol resubmitted", result)
}
