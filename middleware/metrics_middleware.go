package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"partywire/codec"
)

const namespace = "partywire"

// Outcome label values besides the lower-cased decode error kinds.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeRejected    = "rejected"
)

// Metrics counts controller frames by outcome.
type Metrics struct {
	framesTotal *prometheus.CounterVec
	bytesTotal  prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_frames_total",
			Help:      "Controller frames handled by the session, by outcome.",
		}, []string{"outcome"}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_frame_bytes_total",
			Help:      "Bytes received in controller frames.",
		}),
	}
	reg.MustRegister(m.framesTotal, m.bytesTotal)
	return m
}

// Outcome classifies the result of handling a frame.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	}
	if kind := codec.KindOf(err); kind != 0 {
		return strings.ToLower(kind.String())
	}
	return OutcomeRejected
}

func MetricsMiddleware(m *Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) ([]byte, error) {
			out, err := next(ctx, req)
			m.bytesTotal.Add(float64(len(req.Payload)))
			m.framesTotal.WithLabelValues(Outcome(err)).Inc()
			return out, err
		}
	}
}
