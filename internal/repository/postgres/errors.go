package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"loyalty-ledger-backend/internal/domain"
)

var domainErrors = []error{
	domain.ErrValidation,
	domain.ErrNotFound,
	domain.ErrAlreadyReferred,
	domain.ErrConcurrentModification,
	domain.ErrInvariantViolation,
	domain.ErrPermissionDenied,
	domain.ErrAlreadyOffset,
}

// mapError translates driver errors into domain errors. Errors that already
// carry a domain kind pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, de := range domainErrors {
		if errors.Is(err, de) {
			return err
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock_detected
		return fmt.Errorf("%w: %s", domain.ErrConcurrentModification, pqErr.Message)
	case "23514": // check_violation
		return fmt.Errorf("%w: %s (%s)", domain.ErrInvariantViolation, pqErr.Message, pqErr.Constraint)
	case "23505": // unique_violation
		switch pqErr.Constraint {
		case "ledger_entries_source_uniq":
			return fmt.Errorf("%w: %s", domain.ErrAlreadyOffset, pqErr.Detail)
		case "pending_referrals_pkey":
			return fmt.Errorf("%w: %s", domain.ErrAlreadyReferred, pqErr.Detail)
		case "referral_edges_pkey":
			return fmt.Errorf("%w: %s", domain.ErrConcurrentModification, pqErr.Detail)
		}
		return fmt.Errorf("%w: %s", domain.ErrValidation, pqErr.Detail)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pqErr.Detail)
	}
	return err
}
