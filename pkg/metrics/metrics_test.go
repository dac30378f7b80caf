package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/test", "200"))

	RecordHTTPRequest("GET", "/test", "200", 10*time.Millisecond)
	RecordHTTPRequest("GET", "/test", "200", 20*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/test", "200"))
	if after-before != 2 {
		t.Errorf("expected 2 new requests, got %v", after-before)
	}
}

func TestRecordBuild(t *testing.T) {
	ok := testutil.ToFloat64(DiagramsBuilt.WithLabelValues("ok"))
	failed := testutil.ToFloat64(DiagramsBuilt.WithLabelValues("error"))

	RecordBuild(nil)
	RecordBuild(errors.New("boom"))
	RecordBuild(errors.New("boom"))

	if got := testutil.ToFloat64(DiagramsBuilt.WithLabelValues("ok")) - ok; got != 1 {
		t.Errorf("expected 1 successful build, got %v", got)
	}
	if got := testutil.ToFloat64(DiagramsBuilt.WithLabelValues("error")) - failed; got != 2 {
		t.Errorf("expected 2 failed builds, got %v", got)
	}
}
