// Package metrics expone los contadores Prometheus del servicio. Todos los métodos aceptan
// receptor nil para que los casos de uso funcionen sin métricas (tests, herramientas CLI).
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics colectores registrados en un Registerer propio.
type Metrics struct {
	gatherer prometheus.Gatherer

	movementsRecorded   *prometheus.CounterVec
	checkoutOrders      *prometheus.CounterVec
	offersApplied       prometheus.Counter
	reservationsExpired prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registra los colectores bajo namespace en un registro nuevo.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(namespace, reg, reg)
}

// NewWithRegistry registra los colectores en reg; gatherer es lo que sirve Handler.
func NewWithRegistry(namespace string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: gatherer,
		movementsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_recorded_total",
			Help:      "Movimientos de kardex registrados por tipo",
		}, []string{"type"}),
		checkoutOrders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_orders_total",
			Help:      "Órdenes de checkout por estado final",
		}, []string{"status"}),
		offersApplied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_applied_total",
			Help:      "Líneas de orden con una oferta aplicada",
		}),
		reservationsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_expired_total",
			Help:      "Reservas liberadas por expiración",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP atendidas",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de las peticiones HTTP en segundos",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// MovementRecorded incrementa el contador del tipo de movimiento.
func (m *Metrics) MovementRecorded(movementType string) {
	if m == nil {
		return
	}
	m.movementsRecorded.WithLabelValues(movementType).Inc()
}

// OrderFinished cuenta una orden que llegó a status.
func (m *Metrics) OrderFinished(status string) {
	if m == nil {
		return
	}
	m.checkoutOrders.WithLabelValues(status).Inc()
}

// OffersApplied suma n líneas con oferta.
func (m *Metrics) OffersApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.offersApplied.Add(float64(n))
}

// ReservationsExpired suma n reservas expiradas.
func (m *Metrics) ReservationsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reservationsExpired.Add(float64(n))
}

// ObserveHTTP registra una petición atendida. path debe ser la ruta registrada, no la URL cruda.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler exposición en formato texto para /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
