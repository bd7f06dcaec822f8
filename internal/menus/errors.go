package menus

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound reports that a page id is neither in the candidate pool nor backed by a draft page.
	ErrNodeNotFound = errors.New("menus: node not found")
	// ErrTemplateNotFound reports that the selected inclusion template is not parsed.
	ErrTemplateNotFound = errors.New("menus: template not found")
	// ErrTemplatesMissing reports that Render was called before templates were bound.
	ErrTemplatesMissing = errors.New("menus: templates are not configured")
)

// ConversionError wraps a page-to-node conversion failure.
type ConversionError struct {
	PageID int64
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("menus: convert page %d: %v", e.PageID, e.Err)
}

// Unwrap returns the converter error.
func (e *ConversionError) Unwrap() error { return e.Err }

// LookupError wraps a page store failure other than not-found.
type LookupError struct {
	PageID int64
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("menus: load draft page %d: %v", e.PageID, e.Err)
}

// Unwrap returns the page store error.
func (e *LookupError) Unwrap() error { return e.Err }

// OptionError reports an invalid or unknown menu option.
type OptionError struct {
	Option string
	Value  any
	Err    error
}

func (e *OptionError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("menus: option %s: %v", e.Option, e.Err)
	}
	return fmt.Sprintf("menus: option %s=%v: %v", e.Option, e.Value, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OptionError) Unwrap() error { return e.Err }
