package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yaroslaff/sashimidb/internal/registry"
)

// recordCountDesc and the other *Desc vars describe the dynamically
// computed gauges DatasetMetricsCollector submits on every scrape,
// grounded on sapcc-limes' AggregateMetricsCollector (internal/collector/
// metrics.go): a Collector that queries live state at scrape time rather
// than accumulating counters, since the Registry already holds the
// authoritative numbers.
var (
	recordCountDesc = prometheus.NewDesc(
		"sashimidb_dataset_records",
		"Number of records currently held by a dataset.",
		[]string{"project", "dataset"}, nil,
	)
	datasetSizeDesc = prometheus.NewDesc(
		"sashimidb_dataset_size_bytes",
		"Deep-measured size in bytes of a dataset's records.",
		[]string{"project", "dataset"}, nil,
	)
	projectCountDesc = prometheus.NewDesc(
		"sashimidb_projects",
		"Number of projects known to the registry.",
		nil, nil,
	)
)

// DatasetMetricsCollector is a prometheus.Collector that submits
// per-dataset record counts and sizes, plus the total project count,
// read directly from the Registry at scrape time.
type DatasetMetricsCollector struct {
	Registry *registry.Registry
}

// Describe implements the prometheus.Collector interface.
func (c *DatasetMetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- recordCountDesc
	ch <- datasetSizeDesc
	ch <- projectCountDesc
}

// Collect implements the prometheus.Collector interface.
func (c *DatasetMetricsCollector) Collect(ch chan<- prometheus.Metric) {
	names := c.Registry.ProjectNames()
	ch <- prometheus.MustNewConstMetric(projectCountDesc, prometheus.GaugeValue, float64(len(names)))

	for _, projectName := range names {
		proj, ok := c.Registry.Project(projectName)
		if !ok {
			continue
		}
		for _, dsName := range proj.DatasetNames() {
			ds, ok := proj.Dataset(dsName)
			if !ok {
				continue
			}
			ds.Mu.RLock()
			recordCount := ds.Len()
			size := ds.Size
			ds.Mu.RUnlock()

			ch <- prometheus.MustNewConstMetric(recordCountDesc, prometheus.GaugeValue, float64(recordCount), projectName, dsName)
			ch <- prometheus.MustNewConstMetric(datasetSizeDesc, prometheus.GaugeValue, float64(size), projectName, dsName)
		}
	}
}
