// Package apperr holds the sentinel errors shared across blogula packages.
// Callers match them with errors.Is; the wrapping error carries the context.
package apperr

import "errors"

// Post file name and header errors.
var (
	ErrInvalidPostPath = errors.New("invalid post path")
	ErrInvalidDate     = errors.New("invalid date")
	ErrUnknownSeries   = errors.New("unknown series")
)

// Lexer errors.
var (
	ErrUnterminatedBlob    = errors.New("unterminated blob")
	ErrUnexpectedCharacter = errors.New("unexpected character")
)

// Grammar errors.
var (
	ErrMissingFunctionName     = errors.New("missing function name")
	ErrMissingTitle            = errors.New("missing section title")
	ErrUnbalancedSectionMarker = errors.New("unbalanced section marker")
	ErrMalformedList           = errors.New("malformed list")
	ErrMissingFormulaBody      = errors.New("missing formula body")
	ErrMissingCodeBlockParts   = errors.New("missing code block parts")
	ErrMissingImagePath        = errors.New("missing image path")
	ErrUnterminatedCell        = errors.New("unterminated cell")
	ErrMissingText             = errors.New("missing text")
	ErrTrailingContent         = errors.New("trailing content")
	ErrMissingDescription      = errors.New("missing description")
)

// Rendering and output errors.
var (
	ErrUnsupportedPathFormat = errors.New("unsupported path format")
	ErrDuplicateOutput       = errors.New("duplicate output path")
)

var ErrNotFound = errors.New("not found")
