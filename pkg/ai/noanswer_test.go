package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoAnswer(t *testing.T) {
	assert.True(t, IsNoAnswer(NO_ANSWER_PHRASE))
	assert.True(t, IsNoAnswer("  "+NO_ANSWER_PHRASE+"  "))
	assert.True(t, IsNoAnswer("Sorry, I don't have that information right now."))
	// curly quotes from the model normalize before matching
	assert.True(t, IsNoAnswer("I don’t have that information in the support documents."))
	assert.True(t, IsNoAnswer("支持文档中没有找到相关信息。"))
	assert.True(t, IsNoAnswer(""))

	assert.False(t, IsNoAnswer("Delivery is free for orders above $30."))
	assert.False(t, IsNoAnswer("We do not charge for returns within 7 days."))
}

func TestParseIntentResult(t *testing.T) {
	res := ParseIntentResult(`{"intents":["order","offer"],"search_terms":"milk"}`, "where is my milk")
	assert.Equal(t, "milk", res.SearchTerms)
	assert.Len(t, res.Intents, 2)
	assert.True(t, res.Has("order"))
	assert.True(t, res.Has("offer"))

	// code fenced output still parses
	res = ParseIntentResult("```json\n{\"intents\":[\"greeting\"],\"search_terms\":\"\"}\n```", "hello")
	assert.True(t, res.IsGreetingOnly())
	assert.Equal(t, "hello", res.SearchTerms)

	// garbage falls back to product + original message
	res = ParseIntentResult("I think the user wants products", "organic eggs")
	assert.Len(t, res.Intents, 1)
	assert.True(t, res.Has("product"))
	assert.Equal(t, "organic eggs", res.SearchTerms)

	// unknown intents are dropped, empty set falls back
	res = ParseIntentResult(`{"intents":["refund"],"search_terms":"x"}`, "refund me")
	assert.True(t, res.Has("product"))
	assert.Equal(t, "refund me", res.SearchTerms)
}
