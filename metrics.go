package asyncnet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by connections. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	bytesSent      prometheus.Counter
	bytesReceived  prometheus.Counter
	activeConns    prometheus.Gauge
	disconnects    prometheus.Counter
	protocolErrors prometheus.Counter
	queuedSends    prometheus.Counter
}

// NewMetrics registers the connection collectors with reg under namespace.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conn",
			Name:      name,
			Help:      help,
		})
	}

	return &Metrics{
		framesSent:     counter("frames_sent_total", "Frames fully written to peers"),
		framesReceived: counter("frames_received_total", "Frames fully read from peers"),
		bytesSent:      counter("bytes_sent_total", "Header and content bytes written"),
		bytesReceived:  counter("bytes_received_total", "Header and content bytes read"),
		disconnects:    counter("disconnects_total", "Connections torn down"),
		protocolErrors: counter("protocol_errors_total", "Frames rejected for an invalid header"),
		queuedSends:    counter("queued_sends_total", "Sends that waited behind an in-flight send"),
		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "conn",
			Name:      "active",
			Help:      "Connections currently established",
		}),
	}
}

func (m *Metrics) connected() {
	if m != nil {
		m.activeConns.Inc()
	}
}

func (m *Metrics) disconnected() {
	if m != nil {
		m.activeConns.Dec()
		m.disconnects.Inc()
	}
}

func (m *Metrics) frameSent(content int) {
	if m != nil {
		m.framesSent.Inc()
		m.bytesSent.Add(float64(HeaderSize + content))
	}
}

func (m *Metrics) frameReceived(content int) {
	if m != nil {
		m.framesReceived.Inc()
		m.bytesReceived.Add(float64(HeaderSize + content))
	}
}

func (m *Metrics) protocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}

func (m *Metrics) sendQueued() {
	if m != nil {
		m.queuedSends.Inc()
	}
}
