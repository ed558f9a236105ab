package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/formulatree/internal/core/db"
	"github.com/solatis/formulatree/internal/rules"
	"github.com/solatis/formulatree/internal/types"
)

// errBadRequest marks payloads that could not be decoded.
var errBadRequest = errors.New("malformed request")

// errTooLarge marks request bodies over MaxRequestBytes.
var errTooLarge = errors.New("request body too large")

func wrapBadRequest(err error) error {
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// rejected are editor and input errors: the caller asked for something the
// tree or the field enumerations do not allow.
var rejected = []error{
	errBadRequest,
	types.ErrNodeNotFound,
	types.ErrUnknownField,
	types.ErrInactiveField,
	types.ErrBranchNotAllowed,
	types.ErrIndexOutOfRange,
	types.ErrUnknownConditionType,
	types.ErrUnknownMutation,
	types.ErrInvalidValue,
	types.ErrTreeTooLarge,
	types.ErrInvalidRuleSetName,
}

// Code maps a service error onto a gRPC status code.
// Validation failures and rejected edits map to InvalidArgument, missing rule
// sets to NotFound, database failures to Unavailable.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, types.ErrValidationFailed):
		return codes.InvalidArgument
	case errors.Is(err, types.ErrRuleSetNotFound):
		return codes.NotFound
	case errors.Is(err, errTooLarge):
		return codes.ResourceExhausted
	case errors.Is(err, db.ErrDatabase):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	for _, r := range rejected {
		if errors.Is(err, r) {
			return codes.InvalidArgument
		}
	}
	return codes.Internal
}

// HTTPStatus maps a service error onto an HTTP status code. Unlike gRPC,
// validation failures (422) are told apart from rejected edits (400).
func HTTPStatus(err error) int {
	if errors.Is(err, types.ErrValidationFailed) {
		return http.StatusUnprocessableEntity
	}
	switch Code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// grpcError converts a service error into a status error. Validation errors
// carry their path-keyed map as a google.protobuf.Struct detail.
func grpcError(err error) error {
	if st, ok := status.FromError(err); ok {
		return st.Err()
	}
	st := status.New(Code(err), err.Error())

	var verr *rules.ValidationError
	if errors.As(err, &verr) {
		fields := make(map[string]interface{}, len(verr.Errors))
		for k, v := range verr.Errors {
			fields[k] = v
		}
		if detail, derr := structpb.NewStruct(fields); derr == nil {
			if withDetail, werr := st.WithDetails(detail); werr == nil {
				st = withDetail
			}
		}
	}
	return st.Err()
}

// ErrorResponse is the HTTP error body.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Errors rules.Errors `json:"errors,omitempty"`
}

func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	var verr *rules.ValidationError
	if errors.As(err, &verr) {
		resp.Errors = verr.Errors
	}
	return resp
}
