package observability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// StatusClassifier lets callers attach a class to their own error types
// (e.g. "http_404") without this package importing them.
type StatusClassifier interface {
	MetricClass() string
}

// ObserveUpstream times fn and records it against op. A nil Prom just runs fn.
func (p *Prom) ObserveUpstream(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.UpstreamErrorsTotal.WithLabelValues(op, classifyUpstreamErr(err)).Inc()
	}
	p.UpstreamDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyUpstreamErr(err error) string {
	var sc StatusClassifier
	if errors.As(err, &sc) {
		return sc.MetricClass()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	case strings.Contains(msg, "no such host"):
		return "dns"
	default:
		return "unknown"
	}
}
