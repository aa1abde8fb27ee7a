// internal/services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for business-logic failures. Handlers map these to
// HTTP statuses with errors.Is; services wrap them with context via
// fmt.Errorf("...: %w", ...).
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("product variant not found")
	ErrUserNotFound     = errors.New("user not found")

	// ErrValidation covers missing or malformed required fields.
	ErrValidation = errors.New("invalid input")

	// ErrConflict covers unique-constraint violations (slug, SKU,
	// email, username) and deletions blocked by references.
	ErrConflict = errors.New("resource conflict")

	// ErrUpstream means the blob store was reachable but rejected the
	// request.
	ErrUpstream = errors.New("blob store request failed")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserBanned         = errors.New("user account is banned")
)

// UploadFailure records one failed image upload within a batch.
type UploadFailure struct {
	Index int
	Err   error
}

// PartialUploadError reports a settled upload fan-out in which some
// images failed. The caller never sees a partially created product:
// the orchestrator rolls back every row and compensates the uploads
// that did succeed, then surfaces this single aggregate error.
type PartialUploadError struct {
	Failed   []UploadFailure
	Uploaded int // how many uploads succeeded before the rollback
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("%d of %d image uploads failed", len(e.Failed), len(e.Failed)+e.Uploaded)
}

// Is lets errors.Is(err, ErrUpstream) match, since every partial
// failure is ultimately a blob-store failure.
func (e *PartialUploadError) Is(target error) bool {
	return target == ErrUpstream
}
