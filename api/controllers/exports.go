package controllers

import (
	"net/http"
	"strings"

	"github.com/coaltrack/coaltrack-backend/api/responses"
	"github.com/coaltrack/coaltrack-backend/api/validators"
	"github.com/coaltrack/coaltrack-backend/internal/allocation"
	exportsvc "github.com/coaltrack/coaltrack-backend/internal/exports"
	"github.com/coaltrack/coaltrack-backend/pkg/enums"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
	"github.com/coaltrack/coaltrack-backend/pkg/logger"
	"github.com/coaltrack/coaltrack-backend/pkg/pagination"
)

// CreateExport registers an export shipment in PENDING status.
func CreateExport(svc *exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		var payload exportsvc.CreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

func ListExports(svc *exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		shipments, next, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"exports": shipments, "next_cursor": next})
	}
}

func GetExport(svc *exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

type updateExportStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateExportStatus advances a shipment along the lifecycle.
func UpdateExportStatus(svc *exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateExportStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseExportStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		shipment, err := svc.UpdateStatus(r.Context(), id, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

type assignInvestorRequest struct {
	InvestorID *int64 `json:"investor_id"`
}

// AssignExportInvestor sets or clears the funding investor on a shipment.
func AssignExportInvestor(svc *exportsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "export service unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignInvestorRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.AssignInvestor(r.Context(), id, payload.InvestorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shipment)
	}
}

// ExportAllocationStatus reports sourcing progress against a shipment's demand.
func ExportAllocationStatus(validator *allocation.Validator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if validator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "allocation validator unavailable"))
			return
		}

		id, err := validators.IDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := validator.ExportStatus(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, status)
	}
}

// SuggestAllocations proposes a sourcing plan without persisting anything.
func SuggestAllocations(engine *allocation.Engine, logg *logger.Logger) http.HandlerFunc {
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

		opts, err := suggestOptionsFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		set, err := engine.Suggest(r.Context(), id, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, set)
	}
}

type autoAllocateRequest struct {
	Strategy string `json:"strategy,omitempty"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// AutoAllocate commits the engine's plan for one shipment atomically.
func AutoAllocate(engine *allocation.Engine, logg *logger.Logger) http.HandlerFunc {
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

		var payload autoAllocateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		opts := allocation.AutoAllocateOptions{DryRun: payload.DryRun}
		if strategy := strings.TrimSpace(payload.Strategy); strategy != "" {
			parsed, parseErr := enums.ParseAllocationStrategy(strategy)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid strategy"))
				return
			}
			opts.Strategy = parsed
		}

		result, err := engine.AutoAllocate(r.Context(), id, opts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func suggestOptionsFromQuery(r *http.Request) (allocation.SuggestOptions, error) {
	var opts allocation.SuggestOptions

	if strategy := strings.TrimSpace(r.URL.Query().Get("strategy")); strategy != "" {
		parsed, err := enums.ParseAllocationStrategy(strategy)
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid strategy")
		}
		opts.Strategy = parsed
	}

	if quality := strings.TrimSpace(r.URL.Query().Get("min_quality")); quality != "" {
		parsed, err := enums.ParseQualityGrade(quality)
		if err != nil {
			return opts, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid min_quality")
		}
		opts.MinQuality = parsed
	}

	maxSuggestions, err := validators.ParseQueryInt(r, "max_suggestions", 0, 1, 100)
	if err != nil {
		return opts, err
	}
	opts.MaxSuggestions = maxSuggestions

	return opts, nil
}
