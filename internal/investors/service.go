package investors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coaltrack/coaltrack-backend/pkg/db/models"
	pkgerrors "github.com/coaltrack/coaltrack-backend/pkg/errors"
)

type exportLister interface {
	ListByInvestor(ctx context.Context, investorID int64) ([]models.ExportShipment, error)
}

// Service owns investor records and share estimates.
type Service struct {
	repo    *Repository
	exports exportLister
}

// NewService wires the investor service.
func NewService(repo *Repository, exports exportLister) *Service {
	return &Service{repo: repo, exports: exports}
}

// CreateRequest registers an investor. The share arrives either as a
// structured percentage or as the legacy "A/B" text; exactly one is required.
type CreateRequest struct {
	Name               string `json:"name" validate:"required"`
	ProfitSharePercent string `json:"profit_share_percent,omitempty"`
	LegacyShareText    string `json:"legacy_share_text,omitempty"`
	BagsPerContainer   int    `json:"bags_per_container" validate:"required,gt=0"`
}

// Create registers an investor, normalizing the share to a decimal percent.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Investor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "investor name is required")
	}
	if req.BagsPerContainer < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bags_per_container must be a positive integer")
	}

	var (
		percent    decimal.Decimal
		legacyText *string
	)
	switch {
	case req.ProfitSharePercent != "" && req.LegacyShareText != "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide profit_share_percent or legacy_share_text, not both")
	case req.ProfitSharePercent != "":
		parsed, err := decimal.NewFromString(req.ProfitSharePercent)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profit_share_percent")
		}
		percent = parsed
	case req.LegacyShareText != "":
		parsed, err := ParseLegacyShare(req.LegacyShareText)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid legacy_share_text")
		}
		percent = parsed
		text := strings.TrimSpace(req.LegacyShareText)
		legacyText = &text
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profit_share_percent or legacy_share_text is required")
	}
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "profit share must be between 0 and 100")
	}

	investor := &models.Investor{
		Name:               strings.TrimSpace(req.Name),
		ProfitSharePercent: percent,
		LegacyShareText:    legacyText,
		BagsPerContainer:   req.BagsPerContainer,
	}
	if err := s.repo.Create(ctx, investor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting investor")
	}
	return investor, nil
}

// Get loads one investor.
func (s *Service) Get(ctx context.Context, id int64) (*models.Investor, error) {
	investor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("investor %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading investor")
	}
	return investor, nil
}

// List returns all investors.
func (s *Service) List(ctx context.Context) ([]models.Investor, error) {
	investors, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing investors")
	}
	return investors, nil
}

// ExportShare is the investor's stake in one assigned shipment.
type ExportShare struct {
	ExportID   int64           `json:"export_id"`
	DemandBags int             `json:"demand_bags"`
	ShareBags  decimal.Decimal `json:"share_bags"`
	Containers int             `json:"containers"`
}

// ShareEstimate totals an investor's stake across assigned shipments.
type ShareEstimate struct {
	InvestorID         int64           `json:"investor_id"`
	ProfitSharePercent decimal.Decimal `json:"profit_share_percent"`
	BagsPerContainer   int             `json:"bags_per_container"`
	Exports            []ExportShare   `json:"exports"`
	TotalDemandBags    int             `json:"total_demand_bags"`
	TotalShareBags     decimal.Decimal `json:"total_share_bags"`
	TotalContainers    int             `json:"total_containers"`
}

// EstimateShare computes the investor's share over every assigned shipment:
// share% of demanded bags plus the container count at the agreed equivalence.
func (s *Service) EstimateShare(ctx context.Context, investorID int64) (*ShareEstimate, error) {
	investor, err := s.Get(ctx, investorID)
	if err != nil {
		return nil, err
	}
	shipments, err := s.exports.ListByInvestor(ctx, investorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing assigned exports")
	}

	estimate := &ShareEstimate{
		InvestorID:         investor.ID,
		ProfitSharePercent: investor.ProfitSharePercent,
		BagsPerContainer:   investor.BagsPerContainer,
		Exports:            make([]ExportShare, 0, len(shipments)),
		TotalShareBags:     decimal.Zero,
	}
	ratio := investor.ProfitSharePercent.Div(hundred)
	for _, shipment := range shipments {
		demand := decimal.NewFromInt(int64(shipment.QuantityBags))
		share := demand.Mul(ratio).Round(2)
		containers := (shipment.QuantityBags + investor.BagsPerContainer - 1) / investor.BagsPerContainer
		estimate.Exports = append(estimate.Exports, ExportShare{
			ExportID:   shipment.ID,
			DemandBags: shipment.QuantityBags,
			ShareBags:  share,
			Containers: containers,
		})
		estimate.TotalDemandBags += shipment.QuantityBags
		estimate.TotalShareBags = estimate.TotalShareBags.Add(share)
		estimate.TotalContainers += containers
	}
	return estimate, nil
}
