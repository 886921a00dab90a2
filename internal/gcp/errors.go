package gcp

import (
	"errors"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/status"
)

// RemoteError keeps the service's own message as the error text. The admin
// sees "Missing or insufficient permissions." rather than an rpc dump.
type RemoteError struct {
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Unwrap() error { return e.Err }

// remoteError converts gRPC and REST errors. Other errors are returned as-is.
func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = err.Error()
		}
		return &RemoteError{Op: op, Code: gerr.Code, Message: msg, Err: err}
	}
	if st, ok := status.FromError(err); ok && st.Message() != "" {
		return &RemoteError{Op: op, Code: int(st.Code()), Message: st.Message(), Err: err}
	}
	return err
}
