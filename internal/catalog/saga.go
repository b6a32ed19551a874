package catalog

import (
	"context"
	"errors"
	"fmt"

	applog "nutrilog/internal/log"
)

// sagaStep is one storage write of a multi-step commit. undo reverts a
// completed do and may be nil when there is nothing to revert.
type sagaStep struct {
	name string
	do   func(context.Context, Store) error
	undo func(context.Context, Store) error
}

// runSteps executes steps against s. Inside a transaction the store rolls
// back on error; otherwise completed steps are compensated in reverse order.
func (s *Service) runSteps(ctx context.Context, steps []sagaStep) error {
	if tx, ok := s.store.(Transactor); ok {
		return tx.Atomic(ctx, func(store Store) error {
			for _, step := range steps {
				if err := step.do(ctx, store); err != nil {
					return fmt.Errorf("%s: %w", step.name, err)
				}
			}
			return nil
		})
	}
	return runSaga(ctx, s.store, steps)
}

func runSaga(ctx context.Context, store Store, steps []sagaStep) error {
	for i, step := range steps {
		err := step.do(ctx, store)
		if err == nil {
			continue
		}
		err = fmt.Errorf("%s: %w", step.name, err)
		applog.Warn(ctx, "commit step failed, compensating", "step", step.name, "error", err)
		var undoErrs []error
		for j := i - 1; j >= 0; j-- {
			done := steps[j]
			if done.undo == nil {
				continue
			}
			// The caller's deadline may be what failed the step.
			if uerr := done.undo(context.WithoutCancel(ctx), store); uerr != nil {
				applog.Error(ctx, "compensation failed", "step", done.name, "error", uerr)
				undoErrs = append(undoErrs, fmt.Errorf("undo %s: %w", done.name, uerr))
			}
		}
		return errors.Join(append([]error{err}, undoErrs...)...)
	}
	return nil
}
