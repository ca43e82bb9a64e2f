package api

import (
	"context"
	"errors"

	"github.com/solatis/blockvis/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth interceptor. Everything a handler
// returns passes through toStatus:
//   - not found             -> NOT_FOUND
//   - revision conflict     -> ABORTED
//   - validation            -> INVALID_ARGUMENT
//   - context deadline      -> DEADLINE_EXCEEDED
//   - anything else (db)    -> UNAVAILABLE

var invalidArgument = []error{
	types.ErrInvalidAttributes,
	types.ErrAttributesTooLarge,
	types.ErrMissingDocument,
	types.ErrMissingBlockType,
	types.ErrMissingFieldID,
	types.ErrFieldIDTooLong,
	types.ErrFieldValueTooLong,
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, types.ErrBlockNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrRevisionConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	for _, target := range invalidArgument {
		if errors.Is(err, target) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Unavailable, err.Error())
}
