package services

import "context"

// ReportExporter is the outbound port for monthly report export.
type ReportExporter interface {
	AppendMonthReport(ctx context.Context, grid *GridModel) error
}
