package bench

import (
	"context"
	"errors"

	"vpnspeed/internal/storage/models"
)

// Savers saves a run with each saver in order. Every saver is tried even
// when an earlier one fails; the failures are joined.
type Savers []Saver

// Save implements Saver.
func (s Savers) Save(ctx context.Context, run *models.Run) error {
	var errs []error
	for _, saver := range s {
		if err := saver.Save(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
