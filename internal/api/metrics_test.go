package api

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDatasetMetricsCollectorReportsFixture(t *testing.T) {
	h := newTestHarness(t, nil)
	collector := &DatasetMetricsCollector{Registry: h.Registry}

	expected := `
		# HELP sashimidb_dataset_records Number of records currently held by a dataset.
		# TYPE sashimidb_dataset_records gauge
		sashimidb_dataset_records{dataset="products",project="p"} 100
	`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected), "sashimidb_dataset_records"); err != nil {
		t.Errorf("unexpected metrics: %s", err.Error())
	}
}
