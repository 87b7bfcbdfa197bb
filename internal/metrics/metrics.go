package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lostfound"

// Результаты проверки PIN для метки result.
const (
	VerifyResolved   = "resolved"
	VerifyInvalidPin = "invalid_pin"
	VerifyConflict   = "conflict"
	VerifyForbidden  = "forbidden"
	VerifyError      = "error"
)

var (
	PinsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pins_minted_total",
		Help:      "Количество выданных PIN-кодов.",
	})

	PinVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pin_verifications_total",
		Help:      "Попытки подтверждения PIN по результату.",
	}, []string{"result"})

	ReputationCreditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reputation_credit_failures_total",
		Help:      "Закрытые объявления, по которым не удалось начислить репутацию.",
	})

	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_posted_total",
		Help:      "Количество отправленных сообщений.",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_clients",
		Help:      "Открытые WebSocket соединения.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP запросы по маршруту и статусу.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Длительность обработки HTTP запросов.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// GinMiddleware собирает метрики по каждому запросу. Маршрут берётся из
// шаблона gin, чтобы не плодить метки по id.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}
