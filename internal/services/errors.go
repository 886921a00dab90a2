package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfigurationMissing means the Firebase settings are incomplete. The
	// gate is still ready, but every data operation is refused.
	ErrConfigurationMissing = errors.New("configuration missing")
	// ErrAuthFailure is returned when the identity provider rejects a sign-in.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrStorageUnavailable is returned by an upload when no object store is configured.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNoFileSelected is returned by an upload started before a file was picked.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrTransferFailed is returned when the object store rejects an upload.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrPersistenceFailed is returned when the document store rejects a write.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	ErrNotReady           = errors.New("session not ready")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrUploadInFlight     = errors.New("an upload is in progress")
	ErrSaveInFlight       = errors.New("a save is in progress")
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
	ErrProfileNotFound    = errors.New("profile not found")
)

// Failure is the error returned by the workflows. Error() is the human-readable
// message only, so store and provider messages reach the admin unchanged.
type Failure struct {
	Kind    error
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	if f.Kind != nil {
		return f.Kind.Error()
	}
	return "unknown failure"
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (f *Failure) Unwrap() []error {
	var errs []error
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// fail builds a Failure with the kind's own text as message.
func fail(kind error) error {
	return &Failure{Kind: kind, Message: kind.Error()}
}

// passThrough builds a Failure that keeps cause's message verbatim.
func passThrough(kind, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if msg == "" {
		msg = kind.Error()
	}
	return &Failure{Kind: kind, Message: msg, Err: cause}
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.FieldErrors[field]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable label for logs and
// API responses.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrAuthFailure):
		return "auth_failure"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrNoFileSelected):
		return "no_file_selected"
	case errors.Is(err, ErrUploadInFlight):
		return "upload_in_flight"
	case errors.Is(err, ErrSaveInFlight):
		return "save_in_flight"
	case errors.Is(err, ErrDeleteNotConfirmed):
		return "delete_not_confirmed"
	case errors.Is(err, ErrProfileNotFound):
		return "not_found"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrPersistenceFailed):
		return "persistence_failed"
	}
	return "unexpected"
}
