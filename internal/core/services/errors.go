package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// asKind wraps a collaborator error in the service kind unless it already
// carries it. A deadline is additionally marked as domain.ErrTimeout.
func asKind(kind, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w: %w", kind, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", kind, err)
}
