package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/custodia-labs/codetutor/internal/core/domain"
)

// upstreamError classifies a failed embedding or generation call.
// Deadline expiry becomes ErrUpstreamTimeout, anything else becomes failed.
// The cause stays in the chain.
func upstreamError(ctx context.Context, failed error, op string, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstreamTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %w", failed, op, err)
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, domain.ErrUpstreamTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// withTimeout derives a call context. A non-positive timeout only adds cancellation.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
