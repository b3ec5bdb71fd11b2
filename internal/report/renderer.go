package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"mimir/internal/compliance"
)

const (
	headerRow    = 4
	firstDataRow = 5
	lastColumn   = "E"

	labelNoNeeds  = "Keine fälligen Schulungen"
	labelNever    = "Noch nie"
	labelAtOnce   = "sofort"
	labelCurrent  = "Aktuell"
	labelDue      = "Fällig"
	labelOverdue  = "Überfällig"
	germanDateFmt = "02.01.2006"
)

var headerTitles = []string{"Mitarbeiter", "Schulung", "Letzte Teilnahme", "Fällig am", "Status"}

// DefaultColumnWidths 各列默认宽度
var DefaultColumnWidths = []float64{28, 36, 18, 14, 14}

// Renderer 将合规快照渲染为 xlsx 文档：每个部门一个工作表
type Renderer struct {
	columnWidths []float64
}

// NewRenderer 创建渲染器；widths 为空或列数不符时使用默认列宽
func NewRenderer(widths []float64) *Renderer {
	if len(widths) != len(headerTitles) {
		widths = DefaultColumnWidths
	}
	return &Renderer{columnWidths: widths}
}

// Render 渲染全部部门
func (r *Renderer) Render(snap compliance.GlobalSnapshot) ([]byte, error) {
	return r.RenderWithProgress(snap, nil)
}

// RenderWithProgress 渲染全部部门，并在每个部门写完后回调进度（10% ~ 95%）
func (r *Renderer) RenderWithProgress(snap compliance.GlobalSnapshot, progress func(ProgressEvent)) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	namer := newSheetNamer()
	total := len(snap.Departments)

	for i, dept := range snap.Departments {
		name := namer.next(dept.Department.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("rename sheet %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := r.writeDepartment(f, name, dept, styles); err != nil {
			return nil, fmt.Errorf("write department %q: %w", dept.Department.Name, err)
		}

		reportProgress(progress, 10+85*(i+1)/total, fmt.Sprintf("已写入部门 %s", dept.Department.Name))
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	reportProgress(progress, 95, "文档生成完成")
	return buf.Bytes(), nil
}

func (r *Renderer) writeDepartment(f *excelize.File, sheet string, dept compliance.DepartmentSnapshot, styles *styleSet) error {
	// 标题区
	title := fmt.Sprintf("Schulungsbedarf – %s – Stichtag %s", dept.Department.Name, dept.TargetDate.Format(germanDateFmt))
	summary := fmt.Sprintf("Mitarbeiter: %d · mit Bedarf: %d · überfällig: %d",
		len(dept.Employees), dept.EmployeesWithNeeds, dept.OverdueCount)

	if err := f.MergeCell(sheet, "A1", lastColumn+"1"); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A2", lastColumn+"2"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A2", summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastColumn+"1", styles.title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A2", lastColumn+"2", styles.summary); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 24); err != nil {
		return err
	}

	// 表头
	for i, h := range headerTitles {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	headerRef := fmt.Sprintf("A%d", headerRow)
	if err := f.SetCellStyle(sheet, headerRef, fmt.Sprintf("%s%d", lastColumn, headerRow), styles.header); err != nil {
		return err
	}

	for i, w := range r.columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}

	// 数据行
	row := firstDataRow
	for _, ec := range dept.Employees {
		if !ec.HasNeeds() {
			if err := writeRow(f, sheet, row, ec.Employee.Name, labelNoNeeds, nil, nil, labelCurrent, styles.current, styles); err != nil {
				return err
			}
			row++
			continue
		}

		for _, dt := range ec.Due.Sorted() {
			var last, due any
			statusText, statusStyleID := labelDue, styles.due

			if dt.Outcome.IsNever() {
				last, due = labelNever, labelAtOnce
			} else {
				d, _ := dt.Outcome.Date()
				last, due = dt.LastAttended, d
			}
			if dt.Status(dept.Today) == compliance.StatusOverdue {
				statusText, statusStyleID = labelOverdue, styles.overdue
			}

			if err := writeRow(f, sheet, row, ec.Employee.Name, dt.Training.Title, last, due, statusText, statusStyleID, styles); err != nil {
				return err
			}
			row++
		}
	}

	// 冻结表头并添加筛选
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", firstDataRow),
		ActivePane:  "bottomLeft",
		Selection: []excelize.Selection{
			{SQRef: fmt.Sprintf("A%d", firstDataRow), ActiveCell: fmt.Sprintf("A%d", firstDataRow), Pane: "bottomLeft"},
		},
	}); err != nil {
		return err
	}

	lastRow := row - 1
	if lastRow < headerRow {
		lastRow = headerRow
	}
	return f.AutoFilter(sheet, fmt.Sprintf("%s:%s%d", headerRef, lastColumn, lastRow), []excelize.AutoFilterOptions{})
}

// writeRow 写入一行；last/due 为 time.Time 时按日期格式输出，为字符串时原样输出
func writeRow(f *excelize.File, sheet string, row int, employee, training string, last, due any, status string, statusStyleID int, styles *styleSet) error {
	values := []any{employee, training, last, due, status}
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if _, isDate := v.(time.Time); isDate {
			if err := f.SetCellStyle(sheet, cell, cell, styles.date); err != nil {
				return err
			}
		}
	}
	statusCell, _ := excelize.CoordinatesToCellName(len(values), row)
	return f.SetCellStyle(sheet, statusCell, statusCell, statusStyleID)
}
