package resolver

import (
	"errors"
	"fmt"
)

// Code is a native resolution failure classification, kept verbatim
// from the host runtime so rethrown errors keep their diagnostic
// surface.
type Code string

const (
	// UnknownCode marks errors the native resolver did not classify.
	UnknownCode Code = ""

	CodeModuleNotFound         Code = "ERR_MODULE_NOT_FOUND"
	CodeUnsupportedDirImport   Code = "ERR_UNSUPPORTED_DIR_IMPORT"
	CodeInvalidModuleSpecifier Code = "ERR_INVALID_MODULE_SPECIFIER"
	CodePackagePathNotExported Code = "ERR_PACKAGE_PATH_NOT_EXPORTED"
	CodeCommonJSNotFound       Code = "MODULE_NOT_FOUND"
)

// Recoverable reports whether a failure with this code may enter the
// fallback path. Everything else is a fail-closed boundary: the error
// is rethrown unchanged, never inspected further.
func (c Code) Recoverable() bool {
	switch c {
	case CodeModuleNotFound,
		CodeUnsupportedDirImport,
		CodeInvalidModuleSpecifier,
		CodePackagePathNotExported,
		CodeCommonJSNotFound:
		return true
	default:
		return false
	}
}

// Error is a classified native resolution failure.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Code == UnknownCode {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a classified resolution error.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the classification from err, or UnknownCode for
// foreign errors.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return UnknownCode
}
