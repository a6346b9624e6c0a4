package dto

import "fmt"

// DataError signals a missing or malformed upstream snapshot or option
// chain. The core never retries it and never substitutes defaults.
type DataError struct {
	Source string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("market data error from %s: %v", e.Source, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

func NewDataError(source string, err error) *DataError {
	return &DataError{Source: source, Err: err}
}

// StrategyError signals that no valid spread could be built for the
// chosen strategy. Fatal to that cycle, not retried.
type StrategyError struct {
	Strategy StrategyType
	Reason   string
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s: %s", e.Strategy, e.Reason)
}

func NewStrategyError(strategy StrategyType, reason string) *StrategyError {
	return &StrategyError{Strategy: strategy, Reason: reason}
}

// ValidationError signals computed parameters violating an invariant,
// e.g. a negative max loss.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
