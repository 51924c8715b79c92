package statistics

import (
	"net"
	"testing"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listenStatsd(t *testing.T) (net.PacketConn, statsd.Statter) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address:   conn.LocalAddr().String(),
		TagFormat: statsd.InfixComma,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return conn, client
}

func readPacket(t *testing.T, conn net.PacketConn) string {
	buf := make([]byte, 1024)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := conn.ReadFrom(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestWriteGatheredCounter(t *testing.T) {
	conn, client := listenStatsd(t)
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "relaysum_test_parts_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Add(3)

	require.NoError(t, writeGathered(client, registry, map[string]string{"host": "relay-1"}))
	packet := readPacket(t, conn)
	assert.Contains(t, packet, "relaysum_test_parts_total")
	assert.Contains(t, packet, "host=relay-1")
	assert.Contains(t, packet, ":3|c")
}

func TestWriteGatheredGauge(t *testing.T) {
	conn, client := listenStatsd(t)
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "relaysum_test_inflight", Help: "test"})
	registry.MustRegister(gauge)
	gauge.Set(7)

	require.NoError(t, writeGathered(client, registry, nil))
	packet := readPacket(t, conn)
	assert.Contains(t, packet, "relaysum_test_inflight")
	assert.Contains(t, packet, ":7|g")
}

func TestWriteGatheredRejectsHistograms(t *testing.T) {
	_, client := listenStatsd(t)
	registry := prometheus.NewRegistry()
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "relaysum_test_latency", Help: "test"})
	registry.MustRegister(histogram)
	histogram.Observe(1)

	assert.Error(t, writeGathered(client, registry, nil))
}
