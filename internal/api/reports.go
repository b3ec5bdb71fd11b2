package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mimir/internal/compliance"
	"mimir/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DueTrainingResponse 单个到期培训
type DueTrainingResponse struct {
	TrainingID     int64             `json:"trainingId"`
	Title          string            `json:"title"`
	IntervalMonths *int              `json:"intervalMonths,omitempty"`
	Never          bool              `json:"never"`
	LastAttended   *string           `json:"lastAttended"` // 从未参加时为 null
	DueDate        *string           `json:"dueDate"`      // 从未参加时为 null（立即到期）
	Status         compliance.Status `json:"status"`
}

// EmployeeNeedsResponse 员工的培训需求
type EmployeeNeedsResponse struct {
	EmployeeID int64                 `json:"employeeId"`
	Name       string                `json:"name"`
	Status     compliance.Status     `json:"status"`
	Trainings  []DueTrainingResponse `json:"trainings"`
}

// DepartmentNeedsResponse 部门的培训需求
type DepartmentNeedsResponse struct {
	DepartmentID       int64                   `json:"departmentId"`
	Name               string                  `json:"name"`
	EmployeeCount      int                     `json:"employeeCount"`
	EmployeesWithNeeds int                     `json:"employeesWithNeeds"`
	OverdueCount       int                     `json:"overdueCount"`
	Employees          []EmployeeNeedsResponse `json:"employees"`
}

// TrainingNeedsResponse 全部部门的培训需求
type TrainingNeedsResponse struct {
	TargetDate         string                    `json:"targetDate"`
	Today              string                    `json:"today"`
	EmployeeCount      int                       `json:"employeeCount"`
	EmployeesWithNeeds int                       `json:"employeesWithNeeds"`
	OverdueCount       int                       `json:"overdueCount"`
	Departments        []DepartmentNeedsResponse `json:"departments"`
}

func datePtr(t time.Time) *string {
	s := model.FormatDate(t)
	return &s
}

func toDueTrainingResponses(due compliance.DueTrainings, today time.Time) []DueTrainingResponse {
	out := make([]DueTrainingResponse, 0, len(due))
	for _, dt := range due.Sorted() {
		r := DueTrainingResponse{
			TrainingID:     dt.Training.ID,
			Title:          dt.Training.Title,
			IntervalMonths: dt.Training.IntervalMonths,
			Never:          dt.Outcome.IsNever(),
			Status:         dt.Status(today),
		}
		if d, ok := dt.Outcome.Date(); ok {
			r.DueDate = datePtr(d)
			r.LastAttended = datePtr(dt.LastAttended)
		}
		out = append(out, r)
	}
	return out
}

// employeeStatus 员工整体状态：有逾期即逾期，有到期即到期，否则为当前
func employeeStatus(trainings []DueTrainingResponse) compliance.Status {
	status := compliance.StatusCurrent
	for _, t := range trainings {
		if t.Status == compliance.StatusOverdue {
			return compliance.StatusOverdue
		}
		status = compliance.StatusDue
	}
	return status
}

func toDepartmentNeeds(ds compliance.DepartmentSnapshot) DepartmentNeedsResponse {
	resp := DepartmentNeedsResponse{
		DepartmentID:       ds.Department.ID,
		Name:               ds.Department.Name,
		EmployeeCount:      len(ds.Employees),
		EmployeesWithNeeds: ds.EmployeesWithNeeds,
		OverdueCount:       ds.OverdueCount,
		Employees:          make([]EmployeeNeedsResponse, 0, len(ds.Employees)),
	}
	for _, ec := range ds.Employees {
		trainings := toDueTrainingResponses(ec.Due, ds.Today)
		resp.Employees = append(resp.Employees, EmployeeNeedsResponse{
			EmployeeID: ec.Employee.ID,
			Name:       ec.Employee.Name,
			Status:     employeeStatus(trainings),
			Trainings:  trainings,
		})
	}
	return resp
}

// GetTrainingNeeds 培训需求（JSON）
// GET /api/reports/training-needs?departmentId=&targetDate=
func (h *Handler) GetTrainingNeeds(c *gin.Context) {
	target, err := h.targetDate(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()

	if raw := c.Query("departmentId"); raw != "" {
		id, err := parseID(raw, "部门 ID")
		if err != nil {
			h.respondError(c, err)
			return
		}
		ds, err := h.reports.DepartmentSnapshot(ctx, id, target)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"targetDate": model.FormatDate(ds.TargetDate),
			"today":      model.FormatDate(ds.Today),
			"department": toDepartmentNeeds(ds),
		})
		return
	}

	g, err := h.reports.GlobalSnapshot(ctx, target)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := TrainingNeedsResponse{
		TargetDate:         model.FormatDate(g.TargetDate),
		Today:              model.FormatDate(g.Today),
		EmployeeCount:      g.EmployeeCount,
		EmployeesWithNeeds: g.EmployeesWithNeeds,
		OverdueCount:       g.OverdueCount,
		Departments:        make([]DepartmentNeedsResponse, 0, len(g.Departments)),
	}
	for _, ds := range g.Departments {
		resp.Departments = append(resp.Departments, toDepartmentNeeds(ds))
	}
	c.JSON(http.StatusOK, resp)
}

// GetEmployeeDueTrainings 单个员工的到期培训
// GET /api/employees/:id/due-trainings?targetDate=
func (h *Handler) GetEmployeeDueTrainings(c *gin.Context) {
	id, err := parseID(c.Param("id"), "员工 ID")
	if err != nil {
		h.respondError(c, err)
		return
	}
	target, err := h.targetDate(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	e, err := h.catalog.GetEmployee(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	today := h.reports.Today()
	trainings := toDueTrainingResponses(h.reports.GetDueTrainingsForEmployee(e, target), today)
	c.JSON(http.StatusOK, gin.H{
		"employeeId": e.ID,
		"name":       e.Name,
		"targetDate": model.FormatDate(target),
		"today":      model.FormatDate(today),
		"status":     employeeStatus(trainings),
		"trainings":  trainings,
	})
}

// ExportTrainingNeeds 直接下载培训需求报表
// GET /api/reports/training-needs/export?targetDate=
func (h *Handler) ExportTrainingNeeds(c *gin.Context) {
	target, err := h.targetDate(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data, err := h.reports.GenerateDepartmentTrainingReport(c.Request.Context(), target)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(target))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// exportFilename 报表文件名：schulungsbedarf_<YYYY-MM-DD>.xlsx
func exportFilename(target time.Time) string {
	return fmt.Sprintf("schulungsbedarf_%s.xlsx", model.FormatDate(target))
}

func buildExportContentDisposition(target time.Time) string {
	name := exportFilename(target)
	return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(name, `"`, ""))
}
