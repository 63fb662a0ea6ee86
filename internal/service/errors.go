package service

import (
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/castlemilk/leakfinder/backend/internal/store"
	"github.com/rs/zerolog"
)

// errInternal is the only detail clients see for storage and upload failures.
var errInternal = errors.New("something went wrong on our side, please try again")

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// internalError logs the cause and hides it from the client.
func internalError(log zerolog.Logger, op string, err error) *connect.Error {
	log.Error().Err(err).Str("op", op).Msg("request failed")
	return connect.NewError(connect.CodeInternal, errInternal)
}

// storeError maps store.ErrNotFound to NotFound and everything else to Internal.
func storeError(log zerolog.Logger, op, kind string, err error) *connect.Error {
	if errors.Is(err, store.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, fmt.Errorf("%s not found", kind))
	}
	return internalError(log, op, err)
}
