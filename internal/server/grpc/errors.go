package grpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/todolist/internal/common"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidFields, codes.InvalidArgument},
	{common.ErrUnknownValidationFailure, codes.InvalidArgument},
	{common.ErrContentTooLong, codes.InvalidArgument},
	{common.ErrNameNotUnique, codes.InvalidArgument},
	{common.ErrCapacityExceeded, codes.FailedPrecondition},
	{common.ErrTooSoonAfterLastCreation, codes.FailedPrecondition},
	{common.ErrUserAlreadyHasTodolist, codes.FailedPrecondition},
	{common.ErrUserNotAllowed, codes.FailedPrecondition},
	{common.ErrPersistenceFailure, codes.Aborted},
	{common.ErrItemNotFound, codes.NotFound},
	{common.ErrTodolistNotFound, codes.NotFound},
	{common.ErrUserNotFound, codes.NotFound},
	{common.ErrorUnauthorized, codes.Unauthenticated},
}

// toStatus maps a service error onto a gRPC status. Unknown errors are
// reported as Internal without their text.
func toStatus(err error) error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return status.Error(ec.code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal error")
}
