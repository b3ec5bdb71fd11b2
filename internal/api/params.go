package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mimir/internal/model"
	"mimir/internal/report"
)

var errBadRequest = errors.New("bad request")

// targetDate 解析 ?targetDate=YYYY-MM-DD，缺省为今天
func (h *Handler) targetDate(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("targetDate"))
	if raw == "" {
		return h.reports.Today(), nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: targetDate 格式应为 YYYY-MM-DD", errBadRequest)
	}
	return d, nil
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: 无效的 %s", errBadRequest, name)
	}
	return id, nil
}

// respondError 按错误类型映射 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound), errors.Is(err, report.ErrDepartmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}
