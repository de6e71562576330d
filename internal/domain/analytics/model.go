// Package analytics models the AnalyticsSnapshot rollup rows the
// analytics_rollup scheduler upserts (spec.md §3, §4.9).
package analytics

import "time"

// Snapshot is one (metric_name, period) rollup row; later writes upsert.
type Snapshot struct {
	MetricName string
	Value      float64
	Period     time.Time // date, truncated to the rollup's granularity
	Metadata   map[string]string
}
