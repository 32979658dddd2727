package collector

import (
	"encoding/json"
	"strconv"
	"strings"
)

// 以下帮助函数用于访问来源返回的松散文档：每一次取值都带默认值，缺字段不会向外传播

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// lookup 按 key（对象）或 int（数组下标）逐层取值，任一层缺失返回 nil
func lookup(v any, path ...any) any {
	cur := v
	for _, p := range path {
		switch k := p.(type) {
		case string:
			m := asMap(cur)
			if m == nil {
				return nil
			}
			cur = m[k]
		case int:
			s := asSlice(cur)
			if k < 0 || k >= len(s) {
				return nil
			}
			cur = s[k]
		default:
			return nil
		}
	}
	return cur
}

// str 将字符串/数字/布尔转为字符串，其余情况返回 def
func str(v any, def string) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// strAt lookup + str 的组合，结果去掉首尾空白；空串时返回 def
func strAt(v any, def string, path ...any) string {
	s := strings.TrimSpace(str(lookup(v, path...), ""))
	if s == "" {
		return def
	}
	return s
}
