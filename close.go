package semvault

import (
	"context"
	"errors"
	"fmt"
)

// Close persists pending vectors, closes both databases and releases
// the directory lock. Close is idempotent.
func (sv *SemVault) Close(ctx context.Context) error {
	if sv.closed.Swap(true) {
		return nil
	}

	var errs []error
	if err := sv.store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := sv.cacheDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("semvault: close cache db: %w", err))
	}
	return translateError(errors.Join(errs...))
}
