package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
)

const (
	msgInternal    = "Internal server error"
	msgUnavailable = "Service temporarily unavailable"
)

// storeError translates a repository error into a *common.Error.
// common.ErrorNotFound becomes KindNotFound with notFoundMsg; deadline and
// cancellation become KindUnavailable; anything else is KindInternal.
func storeError(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.WrapError(common.KindNotFound, notFoundMsg, err)
	case isTimeout(err):
		return common.WrapError(common.KindUnavailable, msgUnavailable, err)
	default:
		return common.WrapError(common.KindInternal, msgInternal, err)
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// withTimeout bounds ctx by d. A non-positive d leaves ctx unchanged.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
