package v1

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

type fakeProductStore struct {
	store.ProductStore
	searchCalls int
	lastQuery   string
	products    []types.Product
}

func (s *fakeProductStore) Search(_ context.Context, keywords string, limit uint64) ([]types.Product, error) {
	s.searchCalls++
	s.lastQuery = keywords
	if uint64(len(s.products)) > limit {
		return s.products[:limit], nil
	}
	return s.products, nil
}

type fakeOrderStore struct {
	store.OrderStore
	listCalls int
	orders    []types.Order
}

func (s *fakeOrderStore) ListOrders(_ context.Context, _ string, _, pageSize uint64) ([]types.Order, error) {
	s.listCalls++
	if uint64(len(s.orders)) > pageSize {
		return s.orders[:pageSize], nil
	}
	return s.orders, nil
}

type fakeCategoryStore struct {
	store.CategoryStore
	categories []types.Category
}

func (s *fakeCategoryStore) ListCategories(_ context.Context, _ bool) ([]types.Category, error) {
	return s.categories, nil
}

type fakeBannerStore struct {
	store.BannerStore
	banners []types.Banner
}

func (s *fakeBannerStore) ListActive(_ context.Context, _ int64) ([]types.Banner, error) {
	return s.banners, nil
}

func newTestFallbackEngine(driver *fakeDriver, products *fakeProductStore, orders *fakeOrderStore) *fallbackEngine {
	return &fallbackEngine{
		products:   products,
		orders:     orders,
		categories: &fakeCategoryStore{categories: []types.Category{{Name: "Dairy", Active: true}}},
		banners:    &fakeBannerStore{},
		driver:     driver,
		now:        time.Now,
	}
}

func TestFallbackGreetingOnlySkipsEverything(t *testing.T) {
	driver := &fakeDriver{replies: []string{`{"intents":["greeting"],"search_terms":""}`}}
	products := &fakeProductStore{}
	orders := &fakeOrderStore{}
	engine := newTestFallbackEngine(driver, products, orders)

	outcome, err := engine.answer(context.Background(), "u1", "hello!", nil)
	require.NoError(t, err)
	assert.Equal(t, ai.GREETING_REPLY, outcome.Reply)
	// 只有一次分类调用，没有查库也没有最终生成
	assert.Equal(t, 1, driver.queryCalls)
	assert.Zero(t, products.searchCalls)
	assert.Zero(t, orders.listCalls)
}

func TestFallbackProductIntent(t *testing.T) {
	driver := &fakeDriver{replies: []string{
		`{"intents":["product"],"search_terms":"organic milk"}`,
		"We have Organic Milk 1L for 3.50.",
	}}
	products := &fakeProductStore{products: []types.Product{
		{ID: "p1", Name: "Organic Milk 1L", PriceCents: 350, InStock: true},
	}}
	engine := newTestFallbackEngine(driver, products, &fakeOrderStore{})

	outcome, err := engine.answer(context.Background(), "u1", "do you have organic milk?", nil)
	require.NoError(t, err)
	assert.Equal(t, "We have Organic Milk 1L for 3.50.", outcome.Reply)
	assert.Equal(t, "organic milk", products.lastQuery)
	assert.Equal(t, 2, driver.queryCalls)

	// 命中的商品同时以卡片返回
	require.Len(t, outcome.Cards, 1)
	assert.Equal(t, "p1", outcome.Cards[0].ProductID)
	assert.Equal(t, int64(350), outcome.Cards[0].PriceCents)
	assert.True(t, outcome.Cards[0].InStock)

	// facts 进入最终生成的 system prompt
	system := driver.queryInputs[1][0]
	assert.Equal(t, types.USER_ROLE_SYSTEM, system.Role)
	assert.Contains(t, system.Content, "Organic Milk 1L")
	assert.Contains(t, system.Content, "3.50")
}

func TestFallbackClassifierGarbageDefaultsToProduct(t *testing.T) {
	driver := &fakeDriver{replies: []string{
		"sure, the user seems to want groceries",
		"Here is what I found.",
	}}
	products := &fakeProductStore{}
	engine := newTestFallbackEngine(driver, products, &fakeOrderStore{})

	_, err := engine.answer(context.Background(), "", "organic eggs", nil)
	require.NoError(t, err)
	// 解析失败回退到 product 意图，用原始消息做检索词
	assert.Equal(t, 1, products.searchCalls)
	assert.Equal(t, "organic eggs", products.lastQuery)
}

func TestFallbackOrderIntentWithoutUser(t *testing.T) {
	driver := &fakeDriver{replies: []string{
		`{"intents":["order"],"search_terms":""}`,
		"Please sign in to check your order.",
	}}
	orders := &fakeOrderStore{}
	engine := newTestFallbackEngine(driver, &fakeProductStore{}, orders)

	_, err := engine.answer(context.Background(), "", "where is my order?", nil)
	require.NoError(t, err)
	// 未登录不查订单表，facts 直接说明需要登录
	assert.Zero(t, orders.listCalls)
	system := driver.queryInputs[1][0]
	assert.Contains(t, system.Content, "not signed in")
}

func TestFallbackOrderIntentRecentOrders(t *testing.T) {
	driver := &fakeDriver{replies: []string{
		`{"intents":["order"],"search_terms":""}`,
		"Your order is on the way.",
	}}
	orders := &fakeOrderStore{orders: []types.Order{
		{ID: "o1", Status: types.ORDER_STATUS_DISPATCHED, TotalCents: 1999, Items: types.OrderItems{{Name: "Milk", Quantity: 2}}, CreatedAt: time.Now().Unix()},
	}}
	engine := newTestFallbackEngine(driver, &fakeProductStore{}, orders)

	outcome, err := engine.answer(context.Background(), "u1", "where is my order?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Your order is on the way.", outcome.Reply)
	assert.Equal(t, 1, orders.listCalls)
	system := driver.queryInputs[1][0]
	assert.Contains(t, system.Content, "o1")
	assert.Contains(t, system.Content, types.ORDER_STATUS_DISPATCHED)
}

func TestFallbackClassifierProviderErrorStillAnswers(t *testing.T) {
	driver := &fakeDriver{}
	products := &fakeProductStore{}
	engine := newTestFallbackEngine(driver, products, &fakeOrderStore{})

	// 第一次调用(分类)失败，之后恢复
	driver.queryErr = assert.AnError
	intent := engine.classify(context.Background(), "organic eggs")
	assert.True(t, intent.Has(types.INTENT_PRODUCT))
	assert.Equal(t, "organic eggs", intent.SearchTerms)
}
