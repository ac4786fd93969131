package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const maxAttachmentSize = 20 << 20

// ListAttachments returns the live attachments of a protocol.
func (pc *ProtocolController) ListAttachments(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if _, ok := pc.viewer(c, protocolID); !ok {
		return
	}

	attachments, err := pc.attachments.List(c.Request.Context(), protocolID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attachments": attachments, "total": len(attachments)})
}

// UploadAttachment stores a multipart "file" against the protocol.
func (pc *ProtocolController) UploadAttachment(c *gin.Context) {
	protocolID, ok := paramID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds 20MB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
		return
	}
	defer src.Close()

	attachment, err := pc.attachments.Add(c.Request.Context(), protocolID, systemActor(c),
		file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "File uploaded", "attachment": attachment})
}

// DeleteAttachment removes an attachment while the protocol is editable.
func (pc *ProtocolController) DeleteAttachment(c *gin.Context) {
	attachmentID, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	if err := pc.attachments.Remove(c.Request.Context(), attachmentID, systemActor(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Attachment removed"})
}

// DownloadAttachment streams the stored file.
func (pc *ProtocolController) DownloadAttachment(c *gin.Context) {
	attachmentID, ok := paramID(c, "attachment_id")
	if !ok {
		return
	}
	attachment, err := pc.attachments.Get(c.Request.Context(), attachmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, ok := pc.viewer(c, attachment.ProtocolID); !ok {
		return
	}
	c.FileAttachment(attachment.StoredPath, attachment.OriginalName)
}
