package types

import (
	"context"

	"jobmonitor/internal/config"
	"jobmonitor/internal/domain"
)

// Fetcher pulls every posting one company has on one board type.
type Fetcher interface {
	Kind() domain.SourceKind
	Fetch(ctx context.Context, co config.Company) ([]domain.RawListing, error)
}

// ScrapeResult is what one company's fetch produced. Err is set (wrapping
// domain.ErrSourceFetch) when the board could not be read.
type ScrapeResult struct {
	Company config.Company
	Raw     []domain.RawListing
	Err     error
}
