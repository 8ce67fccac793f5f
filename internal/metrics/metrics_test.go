package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read metric: %v", err)
	}
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatal("unsupported metric type")
	return 0
}

func TestNewIsSingleton(t *testing.T) {
	if New() != New() {
		t.Error("New() should return the same instance on every call")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordActivity("task")
	m.RecordEvaluation(OutcomeQualified, time.Millisecond)
	m.RecordReset()
	m.RecordSweep(1, 1, time.Now())
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
}

func TestRecordEvaluation(t *testing.T) {
	m := New()
	before := value(t, m.EvaluationsTotal.WithLabelValues(OutcomeNotQualified))
	m.RecordEvaluation(OutcomeNotQualified, 2*time.Millisecond)
	after := value(t, m.EvaluationsTotal.WithLabelValues(OutcomeNotQualified))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, grew by %v", after-before)
	}
}

func TestRecordSweep(t *testing.T) {
	m := New()
	evaluated := value(t, m.SweepUsersTotal.WithLabelValues("evaluated"))
	failed := value(t, m.SweepUsersTotal.WithLabelValues("failed"))

	at := time.Unix(1704067500, 0)
	m.RecordSweep(3, 1, at)

	if got := value(t, m.SweepUsersTotal.WithLabelValues("evaluated")) - evaluated; got != 3 {
		t.Errorf("evaluated grew by %v, want 3", got)
	}
	if got := value(t, m.SweepUsersTotal.WithLabelValues("failed")) - failed; got != 1 {
		t.Errorf("failed grew by %v, want 1", got)
	}
	if got := value(t, m.SweepLastRunSecond); got != float64(at.Unix()) {
		t.Errorf("last run = %v, want %v", got, at.Unix())
	}
}
