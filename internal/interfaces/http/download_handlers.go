package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BulkDownloadRequest selects attachments of one task. An empty list selects all.
type BulkDownloadRequest struct {
	Refs entity.RefList `json:"refs"`
}

// DownloadAssignment handles GET /tasks/assign. With fileId it streams one assignment
// file; without it, the whole assignment category is zipped.
func (h *Handlers) DownloadAssignment(c *gin.Context) {
	taskID := c.Query("taskId")
	if fileID := c.Query("fileId"); fileID != "" {
		content, err := h.downloads.DownloadFile(c.Request.Context(), taskID, fileID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		sendFile(c, content)
		return
	}

	archive, err := h.downloads.PackageCategory(c.Request.Context(), taskID, entity.CategoryAssignment)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sendArchive(c, archive)
}

// DownloadCategory handles GET /tasks/:id/attachments/:category
func (h *Handlers) DownloadCategory(c *gin.Context) {
	category := entity.AttachmentCategory(c.Param("category"))
	archive, err := h.downloads.PackageCategory(c.Request.Context(), c.Param("id"), category)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sendArchive(c, archive)
}

// DownloadBulk handles POST /tasks/:id/attachments/bulk
func (h *Handlers) DownloadBulk(c *gin.Context) {
	var req BulkDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(c, &service.ValidationError{Field: "refs", Message: "body must be a JSON object with a refs list"})
		return
	}

	archive, err := h.downloads.PackageBulk(c.Request.Context(), c.Param("id"), req.Refs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sendArchive(c, archive)
}

// DownloadBlob handles GET /attachments/blob/:id
func (h *Handlers) DownloadBlob(c *gin.Context) {
	content, err := h.downloads.ReadBlob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	sendFile(c, content)
}

// ExportReport handles GET /tasks/report.xlsx
func (h *Handlers) ExportReport(c *gin.Context) {
	filter := port.TaskFilter{Status: c.Query("status")}
	if err := parseRange(c.Query("from"), c.Query("to"), &filter); err != nil {
		h.writeError(c, err)
		return
	}

	var buf bytes.Buffer
	rows, err := h.reports.ExportTasks(c.Request.Context(), filter, &buf)
	if err != nil {
		h.writeError(c, err)
		return
	}

	name := fmt.Sprintf("tasks-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", attachmentDisposition(name))
	c.Header("X-Report-Rows", strconv.Itoa(rows))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func sendFile(c *gin.Context, content *service.FileContent) {
	contentType := content.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", attachmentDisposition(content.Name))
	c.Data(http.StatusOK, contentType, content.Data)
}

func sendArchive(c *gin.Context, archive *service.Archive) {
	c.Header("Content-Disposition", attachmentDisposition(archive.Name))
	if archive.Truncated || len(archive.Skipped) > 0 {
		c.Header("X-Archive-Skipped", strconv.Itoa(len(archive.Skipped)))
	}
	c.Data(http.StatusOK, "application/zip", archive.Data)
}

func attachmentDisposition(name string) string {
	if name == "" {
		name = "download"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
