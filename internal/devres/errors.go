package devres

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrity marks a reference the engine could not resolve: an
	// unknown type, a missing pin index, an inconsistent node.
	ErrIntegrity = errors.New("devres: integrity error")
	// ErrRange marks a value that does not fit its encoded width.
	ErrRange = errors.New("devres: range error")
)

// IntegrityError names the entity whose reference failed to resolve.
type IntegrityError struct {
	Kind   string
	Name   string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("devres: %s %s: %s", e.Kind, e.Name, e.Detail)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

func integrityf(kind, name, format string, args ...any) error {
	return &IntegrityError{Kind: kind, Name: name, Detail: fmt.Sprintf(format, args...)}
}

// RangeError reports a field value that overflows its encoding.
type RangeError struct {
	Entity string
	Field  string
	Value  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("devres: %s: %s %d out of range", e.Entity, e.Field, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrRange }
