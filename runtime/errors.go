package runtime

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds surfaced to scripts.
const (
	KindError          = "Error"
	KindTypeError      = "TypeError"
	KindReferenceError = "ReferenceError"
	KindSyntaxError    = "SyntaxError"
	KindRangeError     = "RangeError"
	KindURIError       = "URIError"
	KindEvalError      = "EvalError"
)

// RuntimeError is an engine-raised semantic violation. Fatal errors bypass
// catch clauses.
type RuntimeError struct {
	Kind    string
	Message string
	Fatal   bool
}

func (e *RuntimeError) Error() string {
	return e.Kind + ": " + e.Message
}

// NewError builds a RuntimeError of the given kind.
func NewError(kind, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewTypeError(format string, args ...interface{}) *RuntimeError {
	return NewError(KindTypeError, format, args...)
}

func NewReferenceError(format string, args ...interface{}) *RuntimeError {
	return NewError(KindReferenceError, format, args...)
}

func NewSyntaxError(format string, args ...interface{}) *RuntimeError {
	return NewError(KindSyntaxError, format, args...)
}

func NewRangeError(format string, args ...interface{}) *RuntimeError {
	return NewError(KindRangeError, format, args...)
}

// NewFatalError builds an error that no script-level handler can intercept.
func NewFatalError(kind, format string, args ...interface{}) *RuntimeError {
	e := NewError(kind, format, args...)
	e.Fatal = true
	return e
}

// ThrownValue carries a value raised by a script `throw`.
type ThrownValue struct {
	Value *Value
}

func (t *ThrownValue) Error() string {
	return "Uncaught " + DescribeThrown(t.Value)
}

// Throw wraps v as a Go error.
func Throw(v *Value) error {
	return &ThrownValue{Value: v}
}

// DescribeThrown renders a thrown value for diagnostics.
func DescribeThrown(v *Value) string {
	if v == nil {
		return "undefined"
	}
	if v.IsObject() && v.Object.OType == ObjTypeError {
		return objectToString(v.Object)
	}
	if v.Type == TypeString {
		return v.Str
	}
	return v.ToString()
}

// IsFatal reports whether err carries a fatal RuntimeError.
func IsFatal(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Fatal
}

// AsRuntimeError unwraps a RuntimeError.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// AsThrown unwraps a ThrownValue.
func AsThrown(err error) (*ThrownValue, bool) {
	var tv *ThrownValue
	if errors.As(err, &tv) {
		return tv, true
	}
	return nil, false
}

// ErrorKindOf returns the script-visible kind of err, or "" when err is a
// thrown non-error value.
func ErrorKindOf(err error) string {
	if re, ok := AsRuntimeError(err); ok {
		return re.Kind
	}
	if tv, ok := AsThrown(err); ok && tv.Value.IsObject() && tv.Value.Object.OType == ObjTypeError {
		return tv.Value.Object.Get("name").ToString()
	}
	return ""
}
