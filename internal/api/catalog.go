package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mimir/internal/model"
)

// SessionResponse 培训场次
type SessionResponse struct {
	ID         int64  `json:"id"`
	TrainingID int64  `json:"trainingId"`
	Date       string `json:"date"`
	Location   string `json:"location,omitempty"`
}

func toSessionResponse(ts model.TrainingSession) SessionResponse {
	return SessionResponse{
		ID:         ts.ID,
		TrainingID: ts.TrainingID,
		Date:       model.FormatDate(ts.Date),
		Location:   ts.Location,
	}
}

// EmployeeSummary 员工基本信息（不含关联）
type EmployeeSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID *int64 `json:"departmentId,omitempty"`
}

// ListDepartments 部门列表
// GET /api/departments
func (h *Handler) ListDepartments(c *gin.Context) {
	departments, err := h.catalog.ListDepartments(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if departments == nil {
		departments = []model.Department{}
	}
	c.JSON(http.StatusOK, gin.H{"items": departments, "total": len(departments)})
}

// GetDepartment 部门详情（含员工列表）
// GET /api/departments/:id
func (h *Handler) GetDepartment(c *gin.Context) {
	id, err := parseID(c.Param("id"), "部门 ID")
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	dept, err := h.catalog.GetDepartment(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	employees, err := h.catalog.ListEmployeesByDepartment(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	members := make([]EmployeeSummary, 0, len(employees))
	for _, e := range employees {
		members = append(members, EmployeeSummary{ID: e.ID, Name: e.Name, DepartmentID: e.DepartmentID})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          dept.ID,
		"name":        dept.Name,
		"description": dept.Description,
		"employees":   members,
	})
}

// ListUpcomingSessions 今天之后的培训场次
// GET /api/sessions/upcoming
func (h *Handler) ListUpcomingSessions(c *gin.Context) {
	sessions, err := h.catalog.ListUpcomingSessions(c.Request.Context(), h.reports.Today())
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]SessionResponse, 0, len(sessions))
	for _, ts := range sessions {
		items = append(items, toSessionResponse(ts))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// ListSessionAttendees 场次参加者
// GET /api/sessions/:id/attendees
func (h *Handler) ListSessionAttendees(c *gin.Context) {
	id, err := parseID(c.Param("id"), "场次 ID")
	if err != nil {
		h.respondError(c, err)
		return
	}

	attendees, err := h.catalog.ListSessionAttendees(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]EmployeeSummary, 0, len(attendees))
	for _, e := range attendees {
		items = append(items, EmployeeSummary{ID: e.ID, Name: e.Name, DepartmentID: e.DepartmentID})
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": id, "items": items, "total": len(items)})
}
