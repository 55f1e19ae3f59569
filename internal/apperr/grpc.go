package apperr

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GRPCStatus converts err into a status error carrying the matching code.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	var code codes.Code
	switch KindOf(err) {
	case KindNotFound:
		code = codes.NotFound
	case KindInvalidInput:
		code = codes.InvalidArgument
	case KindConflict:
		code = codes.AlreadyExists
	case KindUnauthorized:
		code = codes.Unauthenticated
	default:
		code = codes.Internal
	}
	return status.Errorf(code, "%s", Message(err))
}

// FromGRPC is the inverse of GRPCStatus for errors returned by a client.
func FromGRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return Internal(err, "rpc failed")
	}
	switch st.Code() {
	case codes.NotFound:
		return NotFound("%s", st.Message())
	case codes.InvalidArgument:
		return Invalid("%s", st.Message())
	case codes.AlreadyExists:
		return Conflict("%s", st.Message())
	case codes.Unauthenticated:
		return Unauthorized("%s", st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return Internal(errors.New(st.Message()), "inventory service unavailable")
	default:
		return Internal(errors.New(st.Message()), st.Message())
	}
}
