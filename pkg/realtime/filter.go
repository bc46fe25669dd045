package realtime

import (
	"fmt"
	"strings"
)

// Filter 订阅过滤表达式 column=eq.value
// 零值匹配该表全部行
type Filter struct {
	Column string
	Value  string
}

// ParseFilter 解析过滤表达式，空串返回零值
func ParseFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	col, rest, ok := strings.Cut(expr, "=")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("invalid filter %q", expr)
	}
	value, ok := strings.CutPrefix(rest, "eq.")
	if !ok || value == "" {
		return Filter{}, fmt.Errorf("unsupported filter operator in %q", expr)
	}
	return Filter{Column: strings.TrimSpace(col), Value: value}, nil
}

// IsZero 是否为空过滤
func (f Filter) IsZero() bool {
	return f.Column == ""
}

// String 还原为表达式
func (f Filter) String() string {
	if f.IsZero() {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Matches 判断记录是否满足过滤条件
func (f Filter) Matches(record map[string]interface{}) bool {
	if f.IsZero() {
		return true
	}
	v, ok := record[f.Column]
	if !ok || v == nil {
		return false
	}
	return formatValue(v) == f.Value
}

// JSON 解码后数字统一为 float64，这里按整数格式化以便和过滤值比较
func formatValue(v interface{}) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprint(n)
	case *uint:
		if n == nil {
			return ""
		}
		return fmt.Sprint(*n)
	default:
		return fmt.Sprint(v)
	}
}
