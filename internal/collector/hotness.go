package collector

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// HotKind 热度值的类型标记
type HotKind int

const (
	HotNone    HotKind = iota // 来源未提供热度
	HotNumeric                // 可解析为数值
	HotText                   // 无法解析，原样展示
)

// HotScore 归一化后的热度：数值（已换算“万/亿”单位）或不透明的展示文本
type HotScore struct {
	Kind  HotKind
	Value int64
	Raw   string
}

// NumericHot 构造数值热度
func NumericHot(v int64) HotScore { return HotScore{Kind: HotNumeric, Value: v} }

// TextHot 构造原样展示的热度
func TextHot(s string) HotScore { return HotScore{Kind: HotText, Raw: s} }

var hotUnits = []struct {
	suffix string
	scale  float64
}{
	{"亿", 1e8},
	{"万", 1e4},
	{"w", 1e4},
	{"W", 1e4},
}

// NormalizeHotness 容忍原始整数、带“万/亿”后缀的字符串或缺失值；解析失败只降级为文本，不会报错
func NormalizeHotness(v any) HotScore {
	switch t := v.(type) {
	case nil:
		return HotScore{}
	case json.Number:
		return normalizeHotString(t.String())
	case float64:
		if !fitsInt64(t) {
			return HotScore{}
		}
		return NumericHot(int64(t))
	case int:
		return NumericHot(int64(t))
	case int64:
		return NumericHot(t)
	case string:
		return normalizeHotString(t)
	default:
		return HotScore{}
	}
}

func normalizeHotString(raw string) HotScore {
	s := strings.TrimSpace(raw)
	if s == "" {
		return HotScore{}
	}

	// 知乎 detail_text 形如 “1234 万热度”
	num := strings.TrimSpace(strings.TrimSuffix(s, "热度"))
	num = strings.ReplaceAll(num, ",", "")
	num = strings.ReplaceAll(num, " ", "")

	scale := 1.0
	for _, u := range hotUnits {
		if strings.HasSuffix(num, u.suffix) {
			scale = u.scale
			num = strings.TrimSuffix(num, u.suffix)
			break
		}
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return TextHot(s)
	}
	v := math.Round(f * scale)
	if !fitsInt64(v) {
		return TextHot(s)
	}
	return NumericHot(int64(v))
}

// 超出 int64 的转换会回绕成负数
func fitsInt64(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// Display 返回渲染用文本，未知时为空串
func (h HotScore) Display() string {
	switch h.Kind {
	case HotNumeric:
		if h.Value >= 1e4 {
			w := strconv.FormatFloat(float64(h.Value)/1e4, 'f', 1, 64)
			return strings.TrimSuffix(w, ".0") + "万"
		}
		return strconv.FormatInt(h.Value, 10)
	case HotText:
		return h.Raw
	default:
		return ""
	}
}

// Known 是否有可展示的热度
func (h HotScore) Known() bool { return h.Kind != HotNone }

func (h HotScore) MarshalJSON() ([]byte, error) {
	if !h.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(h.Display())
}

func (h *HotScore) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*h = NormalizeHotness(v)
	return nil
}
