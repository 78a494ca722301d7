// Package errors provides the error and warning system shared by all tidiers.
// Fatal conditions are structured error types carrying stack traces via
// cockroachdb/errors; non-fatal conditions (deprecated options, silent no-ops,
// missing diagnostics) are warnings routed through a process-global handler so
// callers can silence, collect, or log them.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("broom-warning: %v\n", w)
	}
	// zerolog sink, set lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the global warning handler. Passing a handler
// that does nothing silences all non-fatal diagnostics.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. When set it takes
// precedence over the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn reports a non-fatal condition. The operation that raised it has
// completed (or will complete) normally.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}
	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types (non-fatal)
//
// ===========================================================================

// DeprecatedOptionWarning reports use of a superseded option name. The call
// proceeds with the supplied value under the replacement option.
type DeprecatedOptionWarning struct {
	Old string
	New string
}

func (w *DeprecatedOptionWarning) Error() string {
	return fmt.Sprintf("option %q is deprecated; use %q instead (the supplied value was applied)", w.Old, w.New)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *DeprecatedOptionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("old_option", w.Old).
		Str("new_option", w.New).
		Str("type", "DeprecatedOptionWarning")
}

// NewDeprecatedOptionWarning creates a DeprecatedOptionWarning.
func NewDeprecatedOptionWarning(old, replacement string) *DeprecatedOptionWarning {
	return &DeprecatedOptionWarning{Old: old, New: replacement}
}

// NoOpTransformWarning reports that a requested back-transform had no effect,
// typically because the model uses an identity link.
type NoOpTransformWarning struct {
	Op     string
	Reason string
}

func (w *NoOpTransformWarning) Error() string {
	return fmt.Sprintf("%s: requested transform has no effect: %s", w.Op, w.Reason)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *NoOpTransformWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Str("reason", w.Reason).
		Str("type", "NoOpTransformWarning")
}

// NewNoOpTransformWarning creates a NoOpTransformWarning.
func NewNoOpTransformWarning(op, reason string) *NoOpTransformWarning {
	return &NoOpTransformWarning{Op: op, Reason: reason}
}

// MissingDiagnosticWarning reports that a model variant cannot produce one of
// the standard diagnostic columns. The column is omitted from the output; this
// is a capability gap of the model type, not a failure.
type MissingDiagnosticWarning struct {
	Op        string
	Column    string
	ModelKind string
}

func (w *MissingDiagnosticWarning) Error() string {
	return fmt.Sprintf("%s: %s models do not provide %s; column omitted", w.Op, w.ModelKind, w.Column)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (w *MissingDiagnosticWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Str("column", w.Column).
		Str("model_kind", w.ModelKind).
		Str("type", "MissingDiagnosticWarning")
}

// NewMissingDiagnosticWarning creates a MissingDiagnosticWarning.
func NewMissingDiagnosticWarning(op, column, modelKind string) *MissingDiagnosticWarning {
	return &MissingDiagnosticWarning{Op: op, Column: column, ModelKind: modelKind}
}

// ===========================================================================
//
//	Structured error types (fatal)
//
// ===========================================================================

// InvalidArgumentError reports an unrecognized or out-of-range option value.
// Validation errors are raised before any computation and abort the call.
type InvalidArgumentError struct {
	Op     string
	Param  string
	Value  interface{}
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("broom: %s: invalid value for %s: %s (got: %v)", e.Op, e.Param, e.Reason, e.Value)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *InvalidArgumentError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.Param).
		Interface("value", e.Value).
		Str("reason", e.Reason).
		Str("type", "InvalidArgumentError")
}

// NewInvalidArgumentError creates an InvalidArgumentError with a stack trace.
func NewInvalidArgumentError(op, param string, value interface{}, reason string) error {
	err := &InvalidArgumentError{Op: op, Param: param, Value: value, Reason: reason}
	return errors.WithStack(err)
}

// UnsupportedOperationError reports an operation that is fundamentally
// undefined for the given model variant, e.g. a one-row summary of a
// multi-response fit.
type UnsupportedOperationError struct {
	Op        string
	ModelKind string
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("broom: %s is not supported for %s models: %s", e.Op, e.ModelKind, e.Reason)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *UnsupportedOperationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("model_kind", e.ModelKind).
		Str("reason", e.Reason).
		Str("type", "UnsupportedOperationError")
}

// NewUnsupportedOperationError creates an UnsupportedOperationError with a
// stack trace.
func NewUnsupportedOperationError(op, modelKind, reason string) error {
	err := &UnsupportedOperationError{Op: op, ModelKind: modelKind, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError reports mismatched dimensions between model pieces or
// between a model and supplied data.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("broom: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// NotFittedError reports a model adapter constructed without the pieces a
// tidier needs, e.g. a PCA result with no rotation matrix.
type NotFittedError struct {
	ModelKind string
	Missing   string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("broom: %s model is missing %s; construct it from a complete external fit", e.ModelKind, e.Missing)
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_kind", e.ModelKind).
		Str("missing", e.Missing).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelKind, missing string) error {
	err := &NotFittedError{ModelKind: modelKind, Missing: missing}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is unusable for reasons other
// than option validation, e.g. a non-numeric column handed to a projection.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("broom: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty table or matrix is supplied.
	ErrEmptyData = New("empty data")

	// ErrNoTidier is returned by the generic entry points when no tidier is
	// registered for the supplied model kind.
	ErrNoTidier = New("no tidier registered for model kind")
)
