package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cyanfleet"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once              sync.Once
	operationDuration *prom.HistogramVec
	operationResults  *prom.CounterVec
	requests          *prom.CounterVec
	actions           *prom.CounterVec
	collectionSize    *prom.GaugeVec
	actionBacklog     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the engine metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.operationDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of background refresh operations",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"})
		pr.operationResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operation_results_total",
			Help:      "Refresh operation results by outcome",
		}, []string{"operation", "outcome"})
		pr.requests = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Remote API requests issued by refresh operations",
		}, []string{"endpoint", "result"})
		pr.actions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Operator actions by result",
		}, []string{"action", "result"})
		pr.collectionSize = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "collection_size",
			Help:      "Number of records held per collection after the last refresh",
		}, []string{"collection"})
		pr.actionBacklog = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "action_backlog",
			Help:      "Operator actions waiting for the engine",
		})
		reg.MustRegister(pr.operationDuration, pr.operationResults, pr.requests, pr.actions, pr.collectionSize, pr.actionBacklog)
	})
	return pr
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveOperation(operation string, d time.Duration, outcome Outcome) {
	if p == nil || p.operationDuration == nil {
		return
	}
	p.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
	p.operationResults.WithLabelValues(operation, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncRequest(endpoint string, success bool) {
	if p == nil || p.requests == nil {
		return
	}
	p.requests.WithLabelValues(endpoint, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) IncAction(action string, success bool) {
	if p == nil || p.actions == nil {
		return
	}
	p.actions.WithLabelValues(action, resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) SetCollectionSize(collection string, n int) {
	if p == nil || p.collectionSize == nil {
		return
	}
	p.collectionSize.WithLabelValues(collection).Set(float64(n))
}

func (p *PrometheusRecorder) SetActionBacklog(n int) {
	if p == nil || p.actionBacklog == nil {
		return
	}
	p.actionBacklog.Set(float64(n))
}

func resultLabel(success bool) string {
	if success {
		return string(OutcomeSuccess)
	}
	return string(OutcomeFailed)
}
