// Package page drives offset-based pagination over remote collection
// endpoints, accumulating every page into one ordered slice.
package page

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// TotalUnknown signals that a fetch cannot report the collection's total
// size; pagination then terminates on the first short page.
const TotalUnknown = -1

// Fetch returns one page of items starting at offset, together with the
// collection total when the endpoint reports one (TotalUnknown otherwise).
type Fetch[T any] func(ctx context.Context, offset int) (items []T, total int, err error)

// Collect fetches pages of up to pageSize items until the collection is
// exhausted. It terminates when a page comes back shorter than pageSize, or
// when the accumulated offset reaches a reported total; an empty first page
// yields an empty result rather than looping. The pacer, when non-nil, is
// awaited before every fetch so repeated reads stay under the remote's rate
// limit.
func Collect[T any](ctx context.Context, pageSize int, pacer *rate.Limiter, fetch Fetch[T]) ([]T, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page: non-positive page size %d", pageSize)
	}

	var all []T
	offset := 0

	for {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		items, total, err := fetch(ctx, offset)
		if err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}

		all = append(all, items...)
		offset += len(items)

		if len(items) < pageSize {
			return all, nil
		}
		if total != TotalUnknown && offset >= total {
			return all, nil
		}
	}
}
