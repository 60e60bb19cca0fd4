package loadtest

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/wattcast/internal/domain/types"
	"github.com/okian/wattcast/pkg/logger"
)

// ErrMismatch reports a history that disagrees with the answers the
// service gave.
var ErrMismatch = errors.New("history mismatch")

// verifyResults checks, per user, that the history holds exactly the
// successful predictions, in submission order, and that no rejected or
// failed request left a record.
func verifyResults(ctx context.Context, results map[string][]Result, histories map[string][]types.HistoryEntry) error {
	var errs []error
	for user, rs := range results {
		if err := verifyUser(rs, histories[user]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", user, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Get().Info(ctx, "histories verified", logger.Int("users", len(results)))
	return nil
}

func verifyUser(results []Result, rows []types.HistoryEntry) error {
	var ok []Result
	for _, r := range results {
		switch {
		case r.Request.Valid && r.StatusCode == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: valid reading rejected", ErrMismatch)
		case !r.Request.Valid && r.StatusCode == http.StatusOK:
			return fmt.Errorf("%w: invalid reading accepted", ErrMismatch)
		case r.StatusCode == http.StatusOK:
			ok = append(ok, r)
		}
	}
	if len(rows) != len(ok) {
		return fmt.Errorf("%w: %d records for %d successful predictions", ErrMismatch, len(rows), len(ok))
	}
	for i, row := range rows {
		want := ok[i].Prediction
		if row.Prediction != want.Prediction || row.TopSubmeter != want.TopSubmeter {
			return fmt.Errorf("%w: record %d is %v/%d, response was %v/%d",
				ErrMismatch, i, row.Prediction, row.TopSubmeter, want.Prediction, want.TopSubmeter)
		}
	}
	return nil
}
