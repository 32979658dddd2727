package collector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Extractor 把某个来源的原始数据映射为统一条目
type Extractor func(p *Payload) []NewsItem

// Step 降级链中的一环：来源 + 对应的解析函数
type Step struct {
	Source  Source
	Extract Extractor
}

var _ Fetcher = (*Chain)(nil)

// Chain 按顺序尝试各来源，第一个产出条目的来源胜出，之后的来源不再访问
type Chain struct {
	name     string
	category Category
	steps    []Step
	log      zerolog.Logger
}

// NewChain 创建分类采集链，steps 依次为主来源与备用来源
func NewChain(name string, category Category, log zerolog.Logger, steps ...Step) *Chain {
	return &Chain{
		name:     name,
		category: category,
		steps:    steps,
		log:      log.With().Str("category", string(category)).Logger(),
	}
}

func (c *Chain) Name() string       { return c.name }
func (c *Chain) Category() Category { return c.category }

// Fetch 执行降级链；全部失败时返回空结果而不是错误
func (c *Chain) Fetch(ctx context.Context, limit int) CategoryResult {
	if limit <= 0 {
		return Empty(c.category)
	}

	for i, st := range c.steps {
		name := st.Source.Name()
		res := st.Source.Fetch(ctx)
		if !res.OK() {
			c.log.Warn().Str("source", name).Int("step", i).Err(res.Failure).Msg("source failed, try next")
			continue
		}

		items := truncate(safeExtract(c.log, name, st.Extract, res.Payload), limit)
		if len(items) == 0 {
			c.log.Warn().Str("source", name).Int("step", i).Msg("source got 0 items, try next")
			continue
		}

		c.log.Info().Str("source", name).Int("items", len(items)).Msg("category fetched")
		CategoryItems.WithLabelValues(string(c.category)).Set(float64(len(items)))
		return CategoryResult{Category: c.category, Source: name, Items: items}
	}

	c.log.Warn().Int("steps", len(c.steps)).Msg("all sources exhausted")
	CategoryItems.WithLabelValues(string(c.category)).Set(0)
	return Empty(c.category)
}

// safeExtract 解析函数出现 panic 时视为该来源无数据
func safeExtract(log zerolog.Logger, source string, extract Extractor, p *Payload) (items []NewsItem) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("source", source).Err(fmt.Errorf("%v", r)).Msg("extractor panic")
			items = nil
		}
	}()
	if extract == nil || p == nil {
		return nil
	}
	return extract(p)
}
