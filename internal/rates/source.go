// Package rates tracks historical currency conversion rates and resolves
// the latest rate as of a date. It also ingests fresh rates from external
// quote sources.
package rates

import (
	"context"
	"time"
)

// Quote is one rate observation fetched from an external source.
type Quote struct {
	Rate      float64
	FetchedAt time.Time
}

// Source fetches the current rate published by a named source
// ("paralelo", "bcv", ...).
type Source interface {
	FetchRate(ctx context.Context, source string) (Quote, error)
}
