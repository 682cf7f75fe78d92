package service

import (
	"errors"

	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// storeError translates repository failures. Anything but a missing record is
// an unexpected store fault.
func storeError(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.NewInternalError(err)
}

// policyError translates a policy denial, using forbidden as the message for
// a known caller.
func policyError(err error, forbidden string) error {
	switch {
	case errors.Is(err, policy.ErrAuthenticationRequired):
		return apperrors.NewUnauthorized("authentication required")
	case errors.Is(err, policy.ErrAccessForbidden):
		return apperrors.NewForbidden(forbidden)
	default:
		return apperrors.NewInternalError(err)
	}
}
