package collector

import (
	"strconv"
	"strings"
)

// ClothingFallback 温度无法解析时的通用建议
const ClothingFallback = "👔 根据天气适当增减衣物"

// clothingBands 自高到低的温度区间，下界闭合；最后一档兜住所有更低温度
var clothingBands = []struct {
	min     int
	message string
}{
	{28, "👕 短袖短裤，注意防晒"},
	{23, "👔 短袖长裤，舒适凉爽"},
	{18, "👕 长袖薄外套，早晚加件衣服"},
	{13, "🧥 薄外套或卫衣，适当保暖"},
	{8, "🧥 厚外套，建议穿毛衣"},
	{3, "🧥 冬装外套，保暖很重要"},
}

const coldestMessage = "🧥 羽绒服或棉衣，注意保暖防寒"

// SuggestClothing 根据气温给出穿衣建议；输入可能是 "N/A"、"--" 等非数字占位
func SuggestClothing(temp string) string {
	t, ok := parseTemperature(temp)
	if !ok {
		return ClothingFallback
	}
	return ClothingFor(t)
}

// ClothingFor 整数气温对应的建议，七档互不重叠且覆盖全部整数
func ClothingFor(t int) string {
	for _, b := range clothingBands {
		if t >= b.min {
			return b.message
		}
	}
	return coldestMessage
}

func parseTemperature(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for _, suffix := range []string{"°C", "℃", "°"} {
		s = strings.TrimSuffix(s, suffix)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
