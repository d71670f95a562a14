package core

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dashmart-ai/dashmart/pkg/metrics"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	chatReplyTime    *prometheus.HistogramVec
	chatTurnCounter  *prometheus.CounterVec
	providerError    *prometheus.CounterVec
	retrievalTime    *prometheus.HistogramVec
	ingestionCounter *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		chatReplyTime:    metrics.NewHistogramVec("chat_reply_time", []string{"route"}),
		chatTurnCounter:  metrics.NewCounterVec("chat_turn", []string{"route"}),
		providerError:    metrics.NewCounterVec("ai_provider_error", []string{"type"}),
		retrievalTime:    metrics.NewHistogramVec("retrieval_time", nil),
		ingestionCounter: metrics.NewCounterVec("knowledge_ingestion", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

// ChatReplyObserve route 取 rag / fallback / human_only。
func (m *Metrics) ChatReplyObserve(route string, d time.Duration) {
	m.chatReplyTime.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ChatTurnInc(route string) {
	m.chatTurnCounter.WithLabelValues(route).Inc()
}

func (m *Metrics) ProviderErrorInc(types string) {
	m.providerError.WithLabelValues(types).Inc()
}

func (m *Metrics) RetrievalTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.retrievalTime.WithLabelValues())
}

func (m *Metrics) IngestionInc(result string) {
	m.ingestionCounter.WithLabelValues(result).Inc()
}
