// Package metrics contadores Prometheus del servicio de ventas.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saludtotal/farmacia-ventas/internal/application/billing"
	"github.com/saludtotal/farmacia-ventas/internal/application/sales"
)

const namespace = "farmacia_ventas"

var (
	_ sales.Metrics   = (*Recorder)(nil)
	_ billing.Metrics = (*Recorder)(nil)
)

// Recorder implementa las métricas de ventas y facturación sobre un registro propio.
type Recorder struct {
	registry         *prometheus.Registry
	salesFinalized   *prometheus.CounterVec
	salesRejected    *prometheus.CounterVec
	stockAdjustments *prometheus.CounterVec
	invoices         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewRecorder crea el registro con las métricas del servicio. withRuntime agrega las
// métricas de Go y del proceso.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		salesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_finalized_total",
			Help: "Ventas confirmadas por método de pago.",
		}, []string{"payment_method"}),
		salesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sales_rejected_total",
			Help: "Ventas rechazadas antes de persistir, por código de error.",
		}, []string{"kind"}),
		stockAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stock_adjustment_attempts_total",
			Help: "Intentos de descuento de stock por resultado.",
		}, []string{"result"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoices_total",
			Help: "Solicitudes de factura por resultado.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "Solicitudes HTTP por ruta y código.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "Duración de las solicitudes HTTP.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.registry.MustRegister(r.salesFinalized, r.salesRejected, r.stockAdjustments, r.invoices, r.httpRequests, r.httpDuration)
	if withRuntime {
		r.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

func (r *Recorder) SaleFinalized(paymentMethod string) {
	r.salesFinalized.WithLabelValues(paymentMethod).Inc()
}

func (r *Recorder) SaleRejected(kind string) {
	r.salesRejected.WithLabelValues(kind).Inc()
}

func (r *Recorder) StockAdjustment(result string) {
	r.stockAdjustments.WithLabelValues(result).Inc()
}

func (r *Recorder) InvoiceGenerated(result string) {
	r.invoices.WithLabelValues(result).Inc()
}

// HTTPRequest registra una solicitud atendida.
func (r *Recorder) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry devuelve el registro (tests).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }
