package controllers

import (
	"net/http"

	"github.com/coaltrack/coaltrack-backend/api/responses"
	"github.com/coaltrack/coaltrack-backend/api/validators"
	"github.com/coaltrack/coaltrack-backend/internal/allocation"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
)

// ValidateMapping checks one proposed mapping without persisting it.
func ValidateMapping(validator *allocation.Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if validator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation validator unavailable"))
			return
		}

		var payload allocation.MappingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := validator.ValidateMapping(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type bulkValidateRequest struct {
	Mappings []allocation.MappingRequest `json:"mappings" validate:"required,min=1,dive"`
}

// ValidateMappingsBulk checks a batch of proposed mappings, tracking
// cumulative consumption so later entries see earlier reservations.
func ValidateMappingsBulk(validator *allocation.Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if validator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation validator unavailable"))
			return
		}

		var payload bulkValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := validator.ValidateBulk(r.Context(), payload.Mappings)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
