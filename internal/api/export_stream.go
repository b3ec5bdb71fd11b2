package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mimir/internal/model"
	"mimir/internal/report"
)

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExportStream 导出培训需求报表（SSE 进度 + 完成后提供一次性下载地址）
// POST /api/reports/training-needs/export/stream?targetDate=
func (h *Handler) ExportStream(c *gin.Context) {
	target, err := h.targetDate(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:    "start",
		Message: "开始导出",
		Data: map[string]any{
			"targetDate": model.FormatDate(target),
		},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p report.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	data, err := h.reports.Export(c.Request.Context(), report.ExportOptions{
		TargetDate: target,
		Progress:   progressFn,
	})
	if err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "导出失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}

	tempPath := filepath.Join(h.exportDir, fmt.Sprintf("mimir_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "写入导出文件失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, target, h.downloadTTL)
	prefix := strings.TrimSuffix(c.FullPath(), "/reports/training-needs/export/stream")
	downloadURL := fmt.Sprintf("%s/reports/download/%s", prefix, token)

	send(exportProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": downloadURL,
			"filename":    exportFilename(target),
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的报表文件（一次性）
// GET /api/reports/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		h.metrics.IncrementDownload("expired")
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		h.metrics.IncrementDownload("expired")
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.targetDate))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	h.metrics.IncrementDownload("served")
	_ = os.Remove(item.filePath)
}
