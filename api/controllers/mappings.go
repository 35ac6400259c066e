package controllers

import (
	"net/http"

	"github.com/coaltrack/coaltrack-backend/api/responses"
	"github.com/coaltrack/coaltrack-backend/api/validators"
	"github.com/coaltrack/coaltrack-backend/internal/allocation"
	mappingsvc "github.com/coaltrack/coaltrack-backend/internal/mappings"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
)

// CreateMapping links a supply lot to an export shipment. The allocation
// engine owns the write so capacity checks cannot be bypassed.
func CreateMapping(engine *allocation.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation engine unavailable"))
			return
		}

		var payload allocation.CreateMappingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mapping, err := engine.CreateMapping(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, mapping)
	}
}

// ListMappings filters by supply_id or export_id; supply_id wins when both
// are present.
func ListMappings(svc *mappingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		supplyID, err := validators.ParseQueryID(r, "supply_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		exportID, err := validators.ParseQueryID(r, "export_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), mappingsvc.ListFilter{SupplyID: supplyID, ExportID: exportID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func GetMapping(svc *mappingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mapping, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, mapping)
	}
}

// DeleteMapping releases the mapped bags back to the lot.
func DeleteMapping(engine *allocation.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation engine unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := engine.DeleteMapping(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
