/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional update fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrNoSchema is returned when no schema is registered for an entity type
	ErrNoSchema = errors.New("no schema registered for entity type")

	// ErrUnknownField is returned when a field path does not resolve on a schema
	ErrUnknownField = errors.New("unknown field")

	// ErrAmbiguousPath is returned when a field path traverses a to-many relationship
	ErrAmbiguousPath = errors.New("ambiguous field path")

	// ErrTypeMismatch is returned when an operator or function meets incompatible value kinds
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrEmptyAggregate is returned when min, max or avg is requested over no entities
	ErrEmptyAggregate = errors.New("aggregate over empty selection")

	// ErrStoreFailure is returned when the backing store could not complete an operation
	ErrStoreFailure = errors.New("store failure")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// NoSchemaError is returned by a store asked about an entity type it does not know
type NoSchemaError struct {
	Type string
}

func (e *NoSchemaError) Error() string {
	return fmt.Sprintf("no schema registered for entity type %q", e.Type)
}

func (e *NoSchemaError) Is(target error) bool {
	return target == ErrNoSchema
}

// UnknownFieldError reports a path segment that is neither an attribute nor
// a relationship of the entity type it was resolved against
type UnknownFieldError struct {
	Type  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q on entity type %s", e.Field, e.Type)
}

func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

// AmbiguousPathError reports a path that hops through a to-many relationship
type AmbiguousPathError struct {
	Type         string
	Relationship string
}

func (e *AmbiguousPathError) Error() string {
	return fmt.Sprintf("path through to-many relationship %q on entity type %s is ambiguous", e.Relationship, e.Type)
}

func (e *AmbiguousPathError) Is(target error) bool {
	return target == ErrAmbiguousPath
}

// TypeMismatchError reports an operator or function applied to incompatible kinds
type TypeMismatchError struct {
	Operation string
	Left      string
	Right     string
}

func (e *TypeMismatchError) Error() string {
	if e.Right == "" {
		return fmt.Sprintf("type mismatch: %s is not defined for %s", e.Operation, e.Left)
	}
	return fmt.Sprintf("type mismatch: cannot %s %s and %s", e.Operation, e.Left, e.Right)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// EmptyAggregateError reports min, max or avg over zero entities
type EmptyAggregateError struct {
	Function string
	Field    string
}

func (e *EmptyAggregateError) Error() string {
	return fmt.Sprintf("%s(%s) is undefined over an empty selection", e.Function, e.Field)
}

func (e *EmptyAggregateError) Is(target error) bool {
	return target == ErrEmptyAggregate
}

// StoreFailureError wraps an error raised by the backing store
type StoreFailureError struct {
	Operation string
	Err       error
}

func (e *StoreFailureError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Operation, e.Err)
}

func (e *StoreFailureError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreFailureError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewNoSchemaError creates a new NoSchemaError
func NewNoSchemaError(entityType string) error {
	return &NoSchemaError{Type: entityType}
}

// NewUnknownFieldError creates a new UnknownFieldError
func NewUnknownFieldError(entityType, field string) error {
	return &UnknownFieldError{Type: entityType, Field: field}
}

// NewAmbiguousPathError creates a new AmbiguousPathError
func NewAmbiguousPathError(entityType, relationship string) error {
	return &AmbiguousPathError{Type: entityType, Relationship: relationship}
}

// NewTypeMismatchError creates a new TypeMismatchError
func NewTypeMismatchError(operation, left, right string) error {
	return &TypeMismatchError{Operation: operation, Left: left, Right: right}
}

// NewEmptyAggregateError creates a new EmptyAggregateError
func NewEmptyAggregateError(function, field string) error {
	return &EmptyAggregateError{Function: function, Field: field}
}

// NewStoreFailureError wraps err as a StoreFailureError. A nil err yields nil,
// and an error that already is a store failure is returned unchanged.
func NewStoreFailureError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreFailure) {
		return err
	}
	return &StoreFailureError{Operation: operation, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsNoSchema checks if an error is a missing schema error
func IsNoSchema(err error) bool {
	return errors.Is(err, ErrNoSchema)
}

// IsUnknownField checks if an error is an unknown field error
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

// IsAmbiguousPath checks if an error is an ambiguous path error
func IsAmbiguousPath(err error) bool {
	return errors.Is(err, ErrAmbiguousPath)
}

// IsTypeMismatch checks if an error is a type mismatch error
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsEmptyAggregate checks if an error is an empty aggregate error
func IsEmptyAggregate(err error) bool {
	return errors.Is(err, ErrEmptyAggregate)
}

// IsStoreFailure checks if an error is a store failure
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailure)
}
