package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

const (
	WeatherNA     = "N/A"
	WeatherNoDesc = "未知"
	// 所有来源失败时的占位
	WeatherMissing = "--"
	WeatherFailed  = "数据获取失败"

	defaultWttrURL = "https://wttr.in"
	defaultYikeURL = "https://v1.yiketianqi.com/api"
)

// TodayWeather 今日实况
type TodayWeather struct {
	Temp        string `json:"temp"`
	WeatherDesc string `json:"weather"`
	Humidity    string `json:"humidity"`
}

// TomorrowWeather 明日预报
type TomorrowWeather struct {
	TempMax     string `json:"tempMax"`
	TempMin     string `json:"tempMin"`
	WeatherDesc string `json:"weather"`
}

// WeatherReport 每个字段始终存在，未知值用占位符表示
type WeatherReport struct {
	City     string          `json:"city"`
	Source   string          `json:"source,omitempty"`
	Today    TodayWeather    `json:"today"`
	Tomorrow TomorrowWeather `json:"tomorrow"`
}

// Available 是否来自真实数据源
func (w WeatherReport) Available() bool { return w.Source != "" }

// UnavailableWeather 兜底报告，永远成功
func UnavailableWeather(city string) WeatherReport {
	return WeatherReport{
		City:     city,
		Today:    TodayWeather{Temp: WeatherMissing, WeatherDesc: WeatherFailed, Humidity: WeatherMissing},
		Tomorrow: TomorrowWeather{TempMax: WeatherMissing, TempMin: WeatherMissing, WeatherDesc: WeatherFailed},
	}
}

// WeatherExtractor 把来源数据整体映射为一份报告；ok=false 表示数据不可用，继续下一个来源
type WeatherExtractor func(city string, p *Payload) (WeatherReport, bool)

// WeatherStep 天气降级链的一环，来源按城市构造
type WeatherStep struct {
	Source  func(city string) Source
	Extract WeatherExtractor
}

// WeatherOptions 天气来源地址与备用接口凭据
type WeatherOptions struct {
	WttrURL       string
	YikeURL       string
	YikeAppID     string
	YikeAppSecret string
}

// WeatherFetcher 天气：wttr.in → 易客天气 → 占位报告。每次尝试整体替换，不做字段合并。
type WeatherFetcher struct {
	steps []WeatherStep
	log   zerolog.Logger
}

// NewWeatherFetcher 使用默认来源创建天气采集器
func NewWeatherFetcher(t *Transport, log zerolog.Logger, opts WeatherOptions) *WeatherFetcher {
	wttr := strings.TrimRight(opts.WttrURL, "/")
	if wttr == "" {
		wttr = defaultWttrURL
	}
	yike := opts.YikeURL
	if yike == "" {
		yike = defaultYikeURL
	}

	return NewWeatherChain(log,
		WeatherStep{
			Source: func(city string) Source {
				return t.Source(Endpoint{
					Name:    "wttr",
					URL:     wttr + "/" + url.PathEscape(city) + "?format=j1&lang=zh",
					Headers: map[string]string{"User-Agent": "curl/7.68.0"},
				})
			},
			Extract: WttrExtractor,
		},
		WeatherStep{
			Source: func(city string) Source {
				q := url.Values{}
				q.Set("unescape", "1")
				q.Set("version", "v91")
				q.Set("appid", opts.YikeAppID)
				q.Set("appsecret", opts.YikeAppSecret)
				q.Set("city", city)
				return t.Source(Endpoint{Name: "yiketianqi", URL: yike + "?" + q.Encode()})
			},
			Extract: YikeExtractor,
		},
	)
}

// NewWeatherChain 用任意来源组装天气降级链
func NewWeatherChain(log zerolog.Logger, steps ...WeatherStep) *WeatherFetcher {
	return &WeatherFetcher{
		steps: steps,
		log:   log.With().Str("category", string(CategoryWeather)).Logger(),
	}
}

func (w *WeatherFetcher) Fetch(ctx context.Context, city string) WeatherReport {
	for i, st := range w.steps {
		src := st.Source(city)
		res := src.Fetch(ctx)
		if !res.OK() {
			w.log.Warn().Str("source", src.Name()).Int("step", i).Err(res.Failure).Msg("weather source failed, try next")
			continue
		}

		report, ok := safeWeather(w.log, src.Name(), st.Extract, city, res.Payload)
		if !ok {
			w.log.Warn().Str("source", src.Name()).Int("step", i).Msg("weather payload unusable, try next")
			continue
		}
		report.Source = src.Name()
		w.log.Info().Str("source", src.Name()).Str("city", city).Msg("weather fetched")
		return report
	}

	w.log.Warn().Str("city", city).Msg("all weather sources exhausted, use placeholder")
	return UnavailableWeather(city)
}

func safeWeather(log zerolog.Logger, source string, extract WeatherExtractor, city string, p *Payload) (r WeatherReport, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("source", source).Err(fmt.Errorf("%v", rec)).Msg("weather extractor panic")
			r, ok = WeatherReport{}, false
		}
	}()
	if extract == nil || p == nil {
		return WeatherReport{}, false
	}
	return extract(city, p)
}

// WttrExtractor wttr.in j1 格式：current_condition[0] 为实况，weather[1] 为明天
func WttrExtractor(city string, p *Payload) (WeatherReport, bool) {
	doc := asMap(p.Doc)
	if doc == nil {
		return WeatherReport{}, false
	}
	if _, ok := doc["current_condition"]; !ok {
		if _, ok := doc["weather"]; !ok {
			return WeatherReport{}, false
		}
	}

	current := lookup(doc, "current_condition", 0)
	tomorrow := lookup(doc, "weather", 1)

	return WeatherReport{
		City: city,
		Today: TodayWeather{
			Temp:        strAt(current, WeatherNA, "temp_C"),
			WeatherDesc: wttrDesc(current),
			Humidity:    strAt(current, WeatherNA, "humidity"),
		},
		Tomorrow: TomorrowWeather{
			TempMax:     strAt(tomorrow, WeatherNA, "maxtempC"),
			TempMin:     strAt(tomorrow, WeatherNA, "mintempC"),
			WeatherDesc: wttrDesc(lookup(tomorrow, "hourly", 0)),
		},
	}, true
}

// wttrDesc 优先中文描述
func wttrDesc(v any) string {
	if d := strAt(v, "", "lang_zh", 0, "value"); d != "" {
		return d
	}
	return strAt(v, WeatherNoDesc, "weatherDesc", 0, "value")
}

// YikeExtractor 易客天气：tem/wea/humidity 为今天，tem1/tem2 为明天最高/最低
func YikeExtractor(city string, p *Payload) (WeatherReport, bool) {
	doc := asMap(p.Doc)
	if doc == nil {
		return WeatherReport{}, false
	}
	_, hasTem := doc["tem"]
	_, hasWea := doc["wea"]
	if !hasTem && !hasWea {
		// 错误时返回 {"errcode":...,"errmsg":...}
		return WeatherReport{}, false
	}

	wea := strAt(doc, WeatherNoDesc, "wea")
	return WeatherReport{
		City: city,
		Today: TodayWeather{
			Temp:        trimDegree(strAt(doc, WeatherNA, "tem")),
			WeatherDesc: wea,
			Humidity:    strings.TrimSuffix(strAt(doc, WeatherNA, "humidity"), "%"),
		},
		Tomorrow: TomorrowWeather{
			TempMax:     trimDegree(strAt(doc, WeatherNA, "tem1")),
			TempMin:     trimDegree(strAt(doc, WeatherNA, "tem2")),
			WeatherDesc: wea,
		},
	}, true
}

func trimDegree(s string) string {
	for _, suffix := range []string{"°C", "℃", "°"} {
		s = strings.TrimSuffix(s, suffix)
	}
	return s
}
