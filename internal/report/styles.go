package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const dateNumFmt = "dd.mm.yyyy"

// styleSet 单个文档使用的全部样式，每个文档只创建一次
type styleSet struct {
	title   int
	summary int
	header  int
	due     int
	overdue int
	current int
	date    int
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#BFBFBF", Style: 1},
		{Type: "top", Color: "#BFBFBF", Style: 1},
		{Type: "right", Color: "#BFBFBF", Style: 1},
		{Type: "bottom", Color: "#BFBFBF", Style: 1},
	}
}

func statusStyle(fill, font string) *excelize.Style {
	return &excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: font},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(),
	}
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	numFmt := dateNumFmt
	s := &styleSet{}

	defs := []struct {
		name  string
		dst   *int
		style *excelize.Style
	}{
		{"title", &s.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		}},
		{"summary", &s.summary, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Color: "#595959"},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		}},
		{"header", &s.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#305496"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorder(),
		}},
		{"due", &s.due, statusStyle("#FFEB9C", "#9C5700")},
		{"overdue", &s.overdue, statusStyle("#FFC7CE", "#9C0006")},
		{"current", &s.current, statusStyle("#C6EFCE", "#006100")},
		{"date", &s.date, &excelize.Style{
			Alignment:    &excelize.Alignment{Horizontal: "center"},
			Border:       thinBorder(),
			CustomNumFmt: &numFmt,
		}},
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}
