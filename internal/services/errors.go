/**
 * @description
 * Service-level sentinel errors for the interactive add flows.
 * Handlers map these (plus store.ErrNotFound / store.ErrDuplicate /
 * scraper.ErrFetch) to distinct HTTP outcomes.
 */

package services

import "errors"

var (
	// ErrPlanLimit signals the user's plan does not allow the operation
	ErrPlanLimit = errors.New("plan limit reached")
	// ErrAlreadyTracked signals the user already follows the book
	ErrAlreadyTracked = errors.New("book already tracked")
	// ErrUnrecognizedPage signals the fetched page had no catalog identifier
	ErrUnrecognizedPage = errors.New("page layout not recognized")
)
