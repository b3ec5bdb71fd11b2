package report

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mimir/internal/compliance"
	"mimir/internal/model"
)

var (
	today      = model.Date(2026, time.October, 17)
	reportDate = model.Date(2026, time.December, 31)

	firstAid = model.Training{ID: 1, Title: "Erste Hilfe", IntervalMonths: model.Months(24)}
	fire     = model.Training{ID: 2, Title: "Brandschutz", IntervalMonths: model.Months(12)}
)

func fixtureSnapshot() compliance.GlobalSnapshot {
	departments := []model.Department{
		{ID: 10, Name: "IT"},
		{ID: 20, Name: "A/B*C"},
	}
	byDept := map[int64][]model.Employee{
		10: {
			{
				ID:                 1,
				Name:               "Max Mustermann",
				MandatoryTrainings: []model.Training{firstAid, fire},
				AttendedSessions: []model.TrainingSession{
					{ID: 1, TrainingID: firstAid.ID, Date: model.Date(2024, time.September, 1)},
				},
			},
			{ID: 2, Name: "Anna Schmidt"},
			{
				ID:                 3,
				Name:               "Eva Weber",
				MandatoryTrainings: []model.Training{fire},
				AttendedSessions: []model.TrainingSession{
					{ID: 2, TrainingID: fire.ID, Date: model.Date(2025, time.December, 1)},
				},
			},
		},
	}
	return compliance.BuildGlobalSnapshot(departments, byDept, reportDate, today)
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

func cellDate(t *testing.T, f *excelize.File, sheet, cell string) time.Time {
	t.Helper()
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	serial, err := strconv.ParseFloat(raw, 64)
	require.NoError(t, err, "cell %s is not a date serial: %q", cell, raw)
	d, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	return model.DateOf(d)
}

func TestRenderer_SheetsAndTitleBlock(t *testing.T) {
	data, err := NewRenderer(nil).Render(fixtureSnapshot())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"IT", "A_B_C"}, f.GetSheetList())

	title := cellValue(t, f, "IT", "A1")
	assert.True(t, strings.HasPrefix(title, "Schulungsbedarf"), title)
	assert.Contains(t, title, "IT")
	assert.Contains(t, title, "Stichtag 31.12.2026")
	assert.Equal(t, "Mitarbeiter: 3 · mit Bedarf: 2 · überfällig: 2", cellValue(t, f, "IT", "A2"))

	merged, err := f.GetMergeCells("IT")
	require.NoError(t, err)
	refs := make([]string, 0, len(merged))
	for _, m := range merged {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, refs, "A1:E1")

	for i, h := range headerTitles {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		assert.Equal(t, h, cellValue(t, f, "IT", cell))
	}
}

func TestRenderer_DataRows(t *testing.T) {
	data, err := NewRenderer(nil).Render(fixtureSnapshot())
	require.NoError(t, err)
	f := openWorkbook(t, data)

	// Max：Brandschutz 从未参加
	assert.Equal(t, "Max Mustermann", cellValue(t, f, "IT", "A5"))
	assert.Equal(t, "Brandschutz", cellValue(t, f, "IT", "B5"))
	assert.Equal(t, "Noch nie", cellValue(t, f, "IT", "C5"))
	assert.Equal(t, "sofort", cellValue(t, f, "IT", "D5"))
	assert.Equal(t, "Überfällig", cellValue(t, f, "IT", "E5"))

	// Max：Erste Hilfe 2026-09-01 到期，早于今天
	assert.Equal(t, "Erste Hilfe", cellValue(t, f, "IT", "B6"))
	assert.Equal(t, model.Date(2024, time.September, 1), cellDate(t, f, "IT", "C6"))
	assert.Equal(t, model.Date(2026, time.September, 1), cellDate(t, f, "IT", "D6"))
	assert.Equal(t, "Überfällig", cellValue(t, f, "IT", "E6"))

	// Anna：无强制培训
	assert.Equal(t, "Anna Schmidt", cellValue(t, f, "IT", "A7"))
	assert.Equal(t, "Keine fälligen Schulungen", cellValue(t, f, "IT", "B7"))
	assert.Equal(t, "Aktuell", cellValue(t, f, "IT", "E7"))

	// Eva：2026-12-01 到期，晚于今天
	assert.Equal(t, "Eva Weber", cellValue(t, f, "IT", "A8"))
	assert.Equal(t, model.Date(2026, time.December, 1), cellDate(t, f, "IT", "D8"))
	assert.Equal(t, "Fällig", cellValue(t, f, "IT", "E8"))

	assert.Equal(t, "", cellValue(t, f, "IT", "A9"))

	overdueA, err := f.GetCellStyle("IT", "E5")
	require.NoError(t, err)
	overdueB, err := f.GetCellStyle("IT", "E6")
	require.NoError(t, err)
	current, err := f.GetCellStyle("IT", "E7")
	require.NoError(t, err)
	due, err := f.GetCellStyle("IT", "E8")
	require.NoError(t, err)

	assert.Equal(t, overdueA, overdueB)
	assert.NotEqual(t, overdueA, current)
	assert.NotEqual(t, overdueA, due)
	assert.NotEqual(t, current, due)

	// 空部门只有表头
	assert.Equal(t, "Mitarbeiter", cellValue(t, f, "A_B_C", "A4"))
	assert.Equal(t, "", cellValue(t, f, "A_B_C", "A5"))
	assert.Equal(t, "Mitarbeiter: 0 · mit Bedarf: 0 · überfällig: 0", cellValue(t, f, "A_B_C", "A2"))
}

func TestRenderer_ColumnWidths(t *testing.T) {
	widths := []float64{40, 30, 20, 15, 12}
	data, err := NewRenderer(widths).Render(fixtureSnapshot())
	require.NoError(t, err)
	f := openWorkbook(t, data)

	w, err := f.GetColWidth("IT", "A")
	require.NoError(t, err)
	assert.InDelta(t, 40, w, 0.01)

	w, err = f.GetColWidth("IT", "E")
	require.NoError(t, err)
	assert.InDelta(t, 12, w, 0.01)
}

// 无部门时保留默认工作表，文档仍然有效
func TestRenderer_NoDepartments(t *testing.T) {
	data, err := NewRenderer(nil).Render(compliance.GlobalSnapshot{TargetDate: reportDate, Today: today})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestRenderer_Progress(t *testing.T) {
	var events []ProgressEvent
	_, err := NewRenderer(nil).RenderWithProgress(fixtureSnapshot(), func(p ProgressEvent) {
		events = append(events, p)
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	last := -1
	for _, e := range events {
		assert.GreaterOrEqual(t, e.Percent, last)
		assert.LessOrEqual(t, e.Percent, 100)
		last = e.Percent
	}
}
