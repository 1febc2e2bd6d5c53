package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

func fqn(name string) string {
	return prometheus.BuildFQName("gaze", "brc20", name)
}

// Reasons an inscription is not turned into an event.
const (
	DropReasonNoLocation   = "no_location"
	DropReasonNoAddress    = "no_address"
	DropReasonNotUTF8      = "not_utf8"
	DropReasonInvalidJSON  = "invalid_payload"
	DropReasonInvalidEvent = "invalid_event"
)

var (
	Version = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fqn("version"),
			Help: "Client version",
		},
		[]string{"version"},
	)

	CurrentHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: fqn("current_height"),
		Help: "Height of the latest processed block",
	})

	BlockProcessDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    fqn("block_process_duration_seconds"),
		Help:    "Duration of processing one block",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 5},
	})

	Events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("events_total"),
			Help: "Emitted events by kind",
		},
		[]string{"kind"},
	)

	DroppedInscriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fqn("dropped_inscriptions_total"),
			Help: "Candidate inscriptions that produced no event",
		},
		[]string{"reason"},
	)

	UnresolvedTransfers = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fqn("unresolved_transfers_total"),
		Help: "Pending transfers spent by an input other than the first",
	})

	Reorgs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: fqn("reorgs_total"),
		Help: "Chain reorganizations handled",
	})
)

func init() {
	prometheus.MustRegister(
		Version,
		CurrentHeight,
		BlockProcessDuration,
		Events,
		DroppedInscriptions,
		UnresolvedTransfers,
		Reorgs,
	)
}

func ObserveBlock(height int64, started time.Time) {
	CurrentHeight.Set(float64(height))
	BlockProcessDuration.Observe(time.Since(started).Seconds())
}

// Handler serves the default registry on a fiber route.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(ctx *fiber.Ctx) error {
		handler(ctx.Context())
		return nil
	}
}
