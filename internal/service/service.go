// Package service provides the business logic layer (use cases).
// Every call is scoped by an explicit user id taken from the caller's
// credentials; nothing here infers a "current user".
package service

import (
	"errors"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("service")

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}

var errExtractorDisabled = errors.New("extractor not configured")

// isTyped reports whether err already carries a domain error the
// handlers know how to map.
func isTyped(err error) bool {
	var v *domain.ErrValidation
	return domain.IsTransient(err) || errors.As(err, &v)
}
