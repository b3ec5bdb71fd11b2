package report

import (
	"fmt"
	"strings"
)

// MaxSheetNameLength Excel 工作表名称的最大字符数
const MaxSheetNameLength = 31

const defaultSheetName = "Sheet"

var sheetNameReplacer = strings.NewReplacer(
	`\`, "_",
	"/", "_",
	"?", "_",
	"*", "_",
	"[", "_",
	"]", "_",
	":", "_",
)

// SanitizeSheetName 将任意部门名称转换为合法的工作表名称
func SanitizeSheetName(name string) string {
	s := sheetNameReplacer.Replace(name)
	s = strings.Trim(s, "'")
	s = strings.Trim(truncateRunes(s, MaxSheetNameLength), "'")
	if strings.TrimSpace(s) == "" {
		return defaultSheetName
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// sheetNamer 在单个文档内分配不重复的工作表名称（Excel 不区分大小写）
type sheetNamer struct {
	used map[string]struct{}
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: make(map[string]struct{})}
}

func (n *sheetNamer) next(name string) string {
	base := SanitizeSheetName(name)
	candidate := base
	for i := 2; n.taken(candidate); i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		trimmed := strings.TrimRight(truncateRunes(base, MaxSheetNameLength-len(suffix)), "'")
		candidate = trimmed + suffix
	}
	n.used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

func (n *sheetNamer) taken(name string) bool {
	_, ok := n.used[strings.ToLower(name)]
	return ok
}
