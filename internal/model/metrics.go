package model

import "time"

// Metrics receives counters from the storefront core.
type Metrics interface {
	RecordNavigation(outcome, reason string)
	RecordGuardWait(d time.Duration)
	RecordCatalogFetch(success bool, d time.Duration)
	RecordSessionResolved(state SessionState)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordNavigation(string, string) {}
func (NopMetrics) RecordGuardWait(time.Duration) {}
func (NopMetrics) RecordCatalogFetch(bool, time.Duration) {}
func (NopMetrics) RecordSessionResolved(SessionState) {}
