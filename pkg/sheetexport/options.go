// Package sheetexport projects relational records into column-shaped sheets
// and hands them to a writer.
package sheetexport

import (
	"log/slog"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/metrics"
)

// Options configures projection and export behavior.
type Options struct {
	// ExportOrder asks the definition source for its export sequence.
	// If nil, defaults to true.
	ExportOrder *bool
	// EmptyResultFallback refetches every record, unfiltered, when a filter
	// matched nothing. If nil, defaults to true.
	EmptyResultFallback *bool
	// Logger receives progress logs. If nil, slog.Default() is used.
	Logger *slog.Logger
	// Metrics records run metrics when set.
	Metrics *metrics.Collector
}

// DefaultOptions returns default export options.
func DefaultOptions() Options {
	return Options{}
}

// ShouldUseExportOrder returns whether sheets follow the export sequence.
func (o Options) ShouldUseExportOrder() bool {
	if o.ExportOrder != nil {
		return *o.ExportOrder
	}
	return true
}

// ShouldFallbackOnEmpty returns whether an empty filtered result triggers an
// unfiltered fetch.
func (o Options) ShouldFallbackOnEmpty() bool {
	if o.EmptyResultFallback != nil {
		return *o.EmptyResultFallback
	}
	return true
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
