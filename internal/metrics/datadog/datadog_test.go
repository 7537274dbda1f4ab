package datadog

import (
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"abprep/internal/metrics"
)

func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend() error = nil, want error for empty Addr")
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"step": "parse", "job": "ab"})
	if want := []string{"job:ab", "step:parse"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags() = %v, want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("labelsToTags(nil) should be nil")
	}
}

// TestBackendSendsDogStatsD points the client at a local UDP socket and
// checks that a flushed gauge arrives in DogStatsD wire format.
func TestBackendSendsDogStatsD(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{Addr: conn.LocalAddr().String(), Namespace: "abprep."})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.SetGauge(metrics.LiftPercent, 12.5, metrics.Labels{"metric": "revenue"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	payload := string(buf[:n])
	for _, want := range []string{"abprep." + metrics.LiftPercent + ":12.5|g", "metric:revenue"} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload %q missing %q", payload, want)
		}
	}
}
