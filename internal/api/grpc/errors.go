package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"loyalty-ledger-backend/internal/domain"
	"loyalty-ledger-backend/internal/logger"
)

// toStatus maps service errors onto gRPC status codes. Unknown errors are
// logged and reported as Internal without their detail.
func toStatus(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyReferred), errors.Is(err, domain.ErrAlreadyOffset):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, domain.ErrInvariantViolation):
		logger.ErrorContext(ctx, "Invariant violation", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
	logger.ErrorContext(ctx, "Unhandled error", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
