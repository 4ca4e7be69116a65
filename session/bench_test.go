package session

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"partywire/codec"
	"partywire/middleware"
	"partywire/protocol"
)

func benchSession(b *testing.B) (*Session, uint16, []byte) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New("bench", DefaultOptions(), logger,
		middleware.LoggingMiddleware(logger),
		middleware.MetricsMiddleware(middleware.NewMetrics(prometheus.NewRegistry())),
	)
	if err != nil {
		b.Fatal(err)
	}
	id, _, _, err := s.Join()
	if err != nil {
		b.Fatal(err)
	}
	payload, err := codec.Marshal(protocol.Move(1, 2))
	if err != nil {
		b.Fatal(err)
	}
	return s, id, payload
}

// one controller, frames handled one after another
func BenchmarkSerialController(b *testing.B) {
	s, id, payload := benchSession(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.HandleController(ctx, id, payload); err != nil {
			b.Fatal(err)
		}
	}
}

// many goroutines sharing the session, as concurrent connections would
func BenchmarkConcurrentController(b *testing.B) {
	s, id, payload := benchSession(b)
	ctx := context.Background()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.HandleController(ctx, id, payload); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
