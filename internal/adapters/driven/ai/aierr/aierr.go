// Package aierr classifies provider SDK failures into domain error kinds.
package aierr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/custodia-labs/doctag/internal/core/domain"
)

// Wrap marks err with kind and the provider name. A deadline or a client
// timeout is also marked domain.ErrTimeout. Errors already of kind pass through.
func Wrap(kind error, provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	if IsTimeout(err) {
		return fmt.Errorf("%w: %s: %w: %w", kind, provider, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %s: %w", kind, provider, err)
}

// IsTimeout reports whether err is a context deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
