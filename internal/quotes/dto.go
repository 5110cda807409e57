package quotes

import "time"

type CreateQuoteRequest struct {
	ClientID       int64                 `json:"client_id" validate:"required,gt=0"`
	ProjectID      *int64                `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	QuoteDate      *time.Time            `json:"quote_date,omitempty"`
	ExpiryDate     *time.Time            `json:"expiry_date,omitempty"`
	LabourRateType string                `json:"labour_rate_type" validate:"omitempty,oneof=standard premium"`
	Labour         LabourMinutes         `json:"labour"`
	Notes          *string               `json:"notes,omitempty"`
	MaterialLines  []MaterialLineRequest `json:"material_lines,omitempty" validate:"omitempty,dive"`
}

type UpdateQuoteRequest struct {
	ClientID       *int64         `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	ProjectID      *int64         `json:"project_id,omitempty" validate:"omitempty,gt=0"`
	QuoteDate      *time.Time     `json:"quote_date,omitempty"`
	ExpiryDate     *time.Time     `json:"expiry_date,omitempty"`
	LabourRateType *string        `json:"labour_rate_type,omitempty" validate:"omitempty,oneof=standard premium"`
	Labour         *LabourMinutes `json:"labour,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
}

// MaterialLineRequest describes a material line to add or replace.
// UnitCost and ItemDescription default from the catalog entry when
// MaterialID is set and they are omitted.
type MaterialLineRequest struct {
	MaterialID      *int64   `json:"material_id,omitempty" validate:"omitempty,gt=0"`
	ItemDescription string   `json:"item_description,omitempty" validate:"required_without=MaterialID"`
	Quantity        float64  `json:"quantity" validate:"required,gt=0"`
	UnitCost        *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
}

type UpdateMaterialLineRequest struct {
	ItemDescription *string  `json:"item_description,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitCost        *float64 `json:"unit_cost,omitempty" validate:"omitempty,gte=0"`
}

// SetMiscLineRequest toggles or reprices one flat-price extra.
type SetMiscLineRequest struct {
	Included *bool    `json:"included,omitempty"`
	Quantity *int     `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListQuotesRequest struct {
	Status          *Status `json:"status,omitempty"`
	ClientID        *int64  `json:"client_id,omitempty"`
	QuoteNumber     *string `json:"quote_number,omitempty"`
	IncludeArchived bool    `json:"include_archived"`
	Limit           int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset          int     `json:"offset" validate:"gte=0"`
}

// RevisionResult reports the outcome of a revision clone.
type RevisionResult struct {
	NewID    int64 `json:"new_id"`
	Revision int   `json:"revision"`
}
