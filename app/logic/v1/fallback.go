package v1

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

const (
	factProductLimit = 5
	factOrderLimit   = 3
)

// fallbackEngine 数据库兜底问答：一次意图分类 + 按意图查库 + 一次生成。
// 任何一步查库失败只影响对应 facts，不中断整轮。
type fallbackEngine struct {
	products   store.ProductStore
	orders     store.OrderStore
	categories store.CategoryStore
	banners    store.BannerStore
	driver     ai.Driver
	now        func() time.Time
}

func newFallbackEngine(s *core.Core) *fallbackEngine {
	return &fallbackEngine{
		products:   s.Store().ProductStore(),
		orders:     s.Store().OrderStore(),
		categories: s.Store().CategoryStore(),
		banners:    s.Store().BannerStore(),
		driver:     s.Srv().AI(),
		now:        time.Now,
	}
}

type fallbackOutcome struct {
	Reply   string
	Intents []types.ChatIntent
	Cards   []types.ProductCard
	Model   string
}

// answer 处理一轮兜底问答。greeting-only 走固定话术，不查库也不生成。
func (e *fallbackEngine) answer(ctx context.Context, userID, query string, history []*types.MessageContext) (*fallbackOutcome, error) {
	intent := e.classify(ctx, query)

	if intent.IsGreetingOnly() {
		return &fallbackOutcome{
			Reply:   ai.GREETING_REPLY,
			Intents: intent.Intents,
		}, nil
	}

	facts, cards := e.buildFacts(ctx, userID, intent)

	messages := append(append([]*types.MessageContext{}, history...), &types.MessageContext{
		Role:    types.USER_ROLE_USER,
		Content: query,
	})

	resp, err := ai.NewQueryOptions(ctx, e.driver, messages).
		WithPrompt(ai.PROMPT_FALLBACK_EN).
		WithVar(ai.PROMPT_VAR_SITE_NAME, ai.SITE_NAME).
		WithVar(ai.PROMPT_VAR_FACTS, facts).
		Query()
	if err != nil {
		return nil, err
	}

	return &fallbackOutcome{
		Reply:   resp.Message(),
		Intents: intent.Intents,
		Cards:   cards,
		Model:   resp.Model,
	}, nil
}

// classify 意图分类。模型失败或输出不合法时按 product 意图兜底，
// 不重试，也不让分类失败阻断整轮。
func (e *fallbackEngine) classify(ctx context.Context, query string) ai.IntentResult {
	resp, err := ai.NewQueryOptions(ctx, e.driver, nil).
		WithPrompt(ai.PROMPT_INTENT_EN).
		WithVar(ai.PROMPT_VAR_QUERY, query).
		Query()
	if err != nil {
		slog.Warn("intent classification failed, default to product", slog.String("error", err.Error()))
		return ai.ParseIntentResult("", query)
	}
	return ai.ParseIntentResult(resp.Message(), query)
}

// buildFacts 按意图生成紧凑的事实摘要，作为兜底生成的唯一依据。
// 命中的商品同时生成卡片随回复返回。
func (e *fallbackEngine) buildFacts(ctx context.Context, userID string, intent ai.IntentResult) (string, []types.ProductCard) {
	var (
		sections []string
		cards    []types.ProductCard
	)

	if intent.Has(types.INTENT_PRODUCT) {
		facts, productCards := e.productFacts(ctx, intent.SearchTerms)
		sections = append(sections, facts)
		cards = productCards
	}
	if intent.Has(types.INTENT_ORDER) {
		sections = append(sections, e.orderFacts(ctx, userID))
	}
	if intent.Has(types.INTENT_CATEGORY) {
		sections = append(sections, e.categoryFacts(ctx))
	}
	if intent.Has(types.INTENT_OFFER) {
		sections = append(sections, e.offerFacts(ctx))
	}
	if intent.Has(types.INTENT_HELP) {
		sections = append(sections, "service: groceries and daily essentials delivered in minutes; customers can track orders in the app and reach a human support agent from this chat")
	}

	sections = lo.Filter(sections, func(item string, _ int) bool { return item != "" })
	if len(sections) == 0 {
		return "no matching data found", cards
	}
	return strings.Join(sections, "\n\n"), cards
}

func (e *fallbackEngine) productFacts(ctx context.Context, keywords string) (string, []types.ProductCard) {
	products, err := e.products.Search(ctx, keywords, factProductLimit)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("fallback product search failed", slog.String("keywords", keywords), slog.String("error", err.Error()))
		return "", nil
	}
	if len(products) == 0 {
		return fmt.Sprintf("products: no catalog match for %q", keywords), nil
	}

	lines := []string{"products:"}
	cards := make([]types.ProductCard, 0, len(products))
	for _, p := range products {
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		lines = append(lines, fmt.Sprintf("- %s, %.2f, %s", p.Name, float64(p.PriceCents)/100, stock))
		cards = append(cards, types.ProductCard{
			ProductID:  p.ID,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			ImageURL:   p.ImageURL,
			InStock:    p.InStock,
		})
	}
	return strings.Join(lines, "\n"), cards
}

func (e *fallbackEngine) orderFacts(ctx context.Context, userID string) string {
	if userID == "" {
		return "orders: customer is not signed in, order status requires signing in"
	}

	orders, err := e.orders.ListOrders(ctx, userID, types.DEFAULT_PAGE, factOrderLimit)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("fallback order lookup failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return ""
	}
	if len(orders) == 0 {
		return "orders: customer has no orders yet"
	}

	lines := []string{"recent orders (newest first):"}
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("- order %s, status %s, total %.2f, %d items, placed at %s",
			o.ID, o.Status, float64(o.TotalCents)/100, len(o.Items), time.Unix(o.CreatedAt, 0).Format("2006-01-02 15:04")))
	}
	return strings.Join(lines, "\n")
}

func (e *fallbackEngine) categoryFacts(ctx context.Context) string {
	categories, err := e.categories.ListCategories(ctx, true)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("fallback category lookup failed", slog.String("error", err.Error()))
		return ""
	}
	if len(categories) == 0 {
		return ""
	}
	names := lo.Map(categories, func(item types.Category, _ int) string { return item.Name })
	return "categories: " + strings.Join(names, ", ")
}

func (e *fallbackEngine) offerFacts(ctx context.Context) string {
	banners, err := e.banners.ListActive(ctx, e.now().Unix())
	if err != nil && err != sql.ErrNoRows {
		slog.Error("fallback banner lookup failed", slog.String("error", err.Error()))
		return ""
	}
	if len(banners) == 0 {
		return "offers: no active offers right now"
	}

	lines := []string{"active offers:"}
	for _, b := range banners {
		lines = append(lines, "- "+b.Title)
	}
	return strings.Join(lines, "\n")
}
