package graphapi

import (
	"errors"
	"fmt"
)

const (
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	operationErrorWithStatusTemplateConstant = "%s operation failed with status %d: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant     = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	notFoundErrorTemplateConstant            = "%s not found"
	alreadyExistsErrorTemplateConstant       = "%s already exists"
	tokenProviderMissingMessageConstant      = "token provider not configured"
	baseURLMissingMessageConstant            = "service base URL not configured"
)

// OperationName describes a named gateway operation supported by the client.
type OperationName string

var (
	// ErrTokenProviderNotConfigured indicates the client was constructed without a token provider.
	ErrTokenProviderNotConfigured = errors.New(tokenProviderMissingMessageConstant)
	// ErrBaseURLNotConfigured indicates the client was constructed without a service base URL.
	ErrBaseURLNotConfigured = errors.New(baseURLMissingMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps request execution issues for gateway operations.
type OperationError struct {
	Operation  OperationName
	StatusCode int
	Cause      error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.StatusCode > 0 && operationError.Cause != nil {
		return fmt.Sprintf(operationErrorWithStatusTemplateConstant, operationError.Operation, operationError.StatusCode, operationError.Cause)
	}
	if operationError.Cause != nil {
		return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
	}
	return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// NotFoundError indicates the requested directory object does not exist.
type NotFoundError struct {
	Operation OperationName
	Identity  string
}

// Error describes the missing object.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundErrorTemplateConstant, notFoundError.Identity)
}

// AlreadyExistsError indicates an unexpected pre-existing directory object.
type AlreadyExistsError struct {
	Operation OperationName
	Identity  string
}

// Error describes the conflicting object.
func (existsError AlreadyExistsError) Error() string {
	return fmt.Sprintf(alreadyExistsErrorTemplateConstant, existsError.Identity)
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// IsNotFound reports whether the provided error is a NotFoundError.
func IsNotFound(candidateError error) bool {
	var notFoundError NotFoundError
	return errors.As(candidateError, &notFoundError)
}

// IsAlreadyExists reports whether the provided error is an AlreadyExistsError.
func IsAlreadyExists(candidateError error) bool {
	var existsError AlreadyExistsError
	return errors.As(candidateError, &existsError)
}
