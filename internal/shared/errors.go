package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the caller supplied invalid input.
	ErrValidation = errors.New("validation failed")
	// ErrNotDeletable occurs when deleting a quote that left draft.
	ErrNotDeletable = errors.New("only draft quotes can be deleted")
	// ErrNotArchived occurs when unarchiving a quote that is not archived.
	ErrNotArchived = errors.New("quote is not archived")
	// ErrInvalidStatus indicates an unknown quote status value.
	ErrInvalidStatus = errors.New("invalid quote status")
)

// ErrNotEditable occurs when mutating fields or line items of a quote
// that has left draft.
var ErrNotEditable = errors.New("only draft quotes can be edited")
