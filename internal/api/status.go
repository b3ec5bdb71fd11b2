package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mimir/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool   `json:"initialized"` // 是否已有主数据
	Today       string `json:"today"`       // 服务器当前日期
	Departments int    `json:"departments"`
	Employees   int    `json:"employees"`
	Trainings   int    `json:"trainings"`
	Sessions    int    `json:"sessions"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	st, err := h.catalog.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized: st.Employees > 0,
		Today:       model.FormatDate(h.reports.Today()),
		Departments: st.Departments,
		Employees:   st.Employees,
		Trainings:   st.Trainings,
		Sessions:    st.Sessions,
	})
}
