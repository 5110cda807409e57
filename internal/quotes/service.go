package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/workroom-erp/workroom-erp/internal/catalog"
	"github.com/workroom-erp/workroom-erp/internal/sequence"
	"github.com/workroom-erp/workroom-erp/internal/settings"
	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// Service is the quote lifecycle manager. Every mutation applies the
// line change, the totals recomputation and the persist as a single
// transaction, then emits exactly one audit entry.
type Service struct {
	repo      Repository
	settings  settings.Provider
	sequencer sequence.Allocator
	catalog   catalog.Repository
	sink      shared.AuditSink
	logger    *slog.Logger
}

// NewService constructs the service.
func NewService(
	repo Repository,
	provider settings.Provider,
	sequencer sequence.Allocator,
	catalogRepo catalog.Repository,
	sink shared.AuditSink,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		settings:  provider,
		sequencer: sequencer,
		catalog:   catalogRepo,
		sink:      sink,
		logger:    logger,
	}
}

// recalculate recomputes and persists the cached totals from the
// current state of the quote. Must run inside the mutation's
// transaction so readers never see lines and totals disagree.
func (s *Service) recalculate(ctx context.Context, repo Repository, id int64) (Totals, error) {
	q, err := repo.Get(ctx, id)
	if err != nil {
		return Totals{}, fmt.Errorf("recalculate: %w", err)
	}
	gstRate := settings.GSTRate(ctx, s.settings)
	t := Calculate(q.MaterialLines, q.MiscLines, q.Labour, q.LabourRate, gstRate)
	if err := repo.UpdateTotals(ctx, id, t); err != nil {
		return Totals{}, fmt.Errorf("persist totals: %w", err)
	}
	return t, nil
}

func (s *Service) audit(ctx context.Context, action string, quoteID, actorID int64, changes map[string]shared.FieldChange, meta map[string]any) {
	err := s.sink.Record(ctx, shared.AuditEntry{
		ActorID:  actorID,
		Entity:   "quote",
		EntityID: strconv.FormatInt(quoteID, 10),
		Action:   action,
		Changes:  changes,
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("audit record failed", slog.String("action", action), slog.Int64("quote_id", quoteID), slog.Any("error", err))
	}
}

func (s *Service) buildMaterialLine(ctx context.Context, quoteID int64, req MaterialLineRequest) (MaterialLine, error) {
	if req.Quantity <= 0 {
		return MaterialLine{}, fmt.Errorf("%w: material quantity must be positive", shared.ErrValidation)
	}

	line := MaterialLine{
		QuoteID:         quoteID,
		MaterialID:      req.MaterialID,
		ItemDescription: req.ItemDescription,
		Quantity:        req.Quantity,
	}
	if req.UnitCost != nil {
		if *req.UnitCost < 0 {
			return MaterialLine{}, fmt.Errorf("%w: unit cost cannot be negative", shared.ErrValidation)
		}
		line.UnitCost = *req.UnitCost
	}

	if req.MaterialID != nil {
		material, err := s.catalog.GetMaterial(ctx, *req.MaterialID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return MaterialLine{}, fmt.Errorf("%w: unknown material %d", shared.ErrValidation, *req.MaterialID)
			}
			return MaterialLine{}, fmt.Errorf("lookup material: %w", err)
		}
		if line.ItemDescription == "" {
			line.ItemDescription = material.Name
		}
		if req.UnitCost == nil {
			line.UnitCost = material.UnitCost
		}
	} else if line.ItemDescription == "" {
		return MaterialLine{}, fmt.Errorf("%w: free-text lines need a description", shared.ErrValidation)
	}

	line.LineTotal = LineTotal(line.Quantity, line.UnitCost)
	return line, nil
}

// Create allocates a quote number, persists the draft with its seeded
// misc lines and computed totals, and reports the creation to the
// audit sink.
func (s *Service) Create(ctx context.Context, req CreateQuoteRequest, createdBy int64) (*Quote, error) {
	if req.ClientID <= 0 {
		return nil, fmt.Errorf("%w: client is required", shared.ErrValidation)
	}

	rateType := req.LabourRateType
	if rateType == "" {
		rateType = RateTypeStandard
	}
	if rateType != RateTypeStandard && rateType != RateTypePremium {
		return nil, fmt.Errorf("%w: unknown labour rate type %q", shared.ErrValidation, rateType)
	}
	labourRate := settings.LabourRate(ctx, s.settings, rateType)

	quoteDate := time.Now()
	if req.QuoteDate != nil {
		quoteDate = *req.QuoteDate
	}
	expiryDate := quoteDate.AddDate(0, 0, settings.QuoteValidityDays(ctx, s.settings))
	if req.ExpiryDate != nil {
		expiryDate = *req.ExpiryDate
	}

	year := quoteDate.Year()
	seq, err := s.sequencer.Next(ctx, DocTypeQuote, year)
	if err != nil {
		return nil, fmt.Errorf("allocate quote number: %w", err)
	}
	number := FormatQuoteNumber(year, seq)

	extras, err := s.catalog.ListActiveMiscMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load misc catalog: %w", err)
	}

	clientID := req.ClientID
	quote := Quote{
		QuoteNumber:    number,
		Revision:       1,
		Status:         StatusDraft,
		ClientID:       &clientID,
		ProjectID:      req.ProjectID,
		QuoteDate:      quoteDate,
		ExpiryDate:     expiryDate,
		Labour:         req.Labour,
		LabourRateType: rateType,
		LabourRate:     labourRate,
		Notes:          req.Notes,
		CreatedBy:      createdBy,
		UpdatedBy:      createdBy,
	}

	var quoteID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, quote)
		if err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		quoteID = id

		for i, lineReq := range req.MaterialLines {
			line, err := s.buildMaterialLine(ctx, id, lineReq)
			if err != nil {
				return err
			}
			line.SortOrder = i + 1
			if _, err := repo.InsertMaterialLine(ctx, line); err != nil {
				return fmt.Errorf("insert material line: %w", err)
			}
		}

		// One unincluded line per active catalog extra, so the quote
		// editor shows every option without charging for any.
		for _, extra := range extras {
			line := MiscLine{
				QuoteID:        id,
				MiscMaterialID: extra.ID,
				Name:           extra.Name,
				Price:          extra.Price,
				Quantity:       1,
				Included:       false,
			}
			if _, err := repo.InsertMiscLine(ctx, line); err != nil {
				return fmt.Errorf("seed misc line: %w", err)
			}
		}

		_, err = s.recalculate(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.created", quoteID, createdBy, nil, map[string]any{
		"quote_number": number,
		"revision":     1,
	})
	return s.repo.Get(ctx, quoteID)
}

// Get loads a quote with its lines.
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.Get(ctx, id)
}

// List returns quotes matching the filter.
func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

// Update applies header and labour field changes to a draft quote,
// re-resolving the labour rate when the rate type changes, and
// recomputes totals unconditionally.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuoteRequest, updatedBy int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if !existing.IsEditable() {
		return nil, shared.ErrNotEditable
	}

	updates := map[string]any{"updated_by": updatedBy}
	changes := map[string]shared.FieldChange{}

	if req.ClientID != nil {
		updates["client_id"] = *req.ClientID
		changes["client_id"] = shared.FieldChange{Old: existing.ClientID, New: *req.ClientID}
	}
	if req.ProjectID != nil {
		updates["project_id"] = *req.ProjectID
		changes["project_id"] = shared.FieldChange{Old: existing.ProjectID, New: *req.ProjectID}
	}
	if req.QuoteDate != nil {
		updates["quote_date"] = *req.QuoteDate
		changes["quote_date"] = shared.FieldChange{Old: existing.QuoteDate, New: *req.QuoteDate}
	}
	if req.ExpiryDate != nil {
		updates["expiry_date"] = *req.ExpiryDate
		changes["expiry_date"] = shared.FieldChange{Old: existing.ExpiryDate, New: *req.ExpiryDate}
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
		changes["notes"] = shared.FieldChange{Old: existing.Notes, New: *req.Notes}
	}
	if req.Labour != nil {
		updates["labour_stripping"] = req.Labour.Stripping
		updates["labour_patterns"] = req.Labour.Patterns
		updates["labour_cutting"] = req.Labour.Cutting
		updates["labour_sewing"] = req.Labour.Sewing
		updates["labour_upholstery"] = req.Labour.Upholstery
		updates["labour_assembly"] = req.Labour.Assembly
		updates["labour_handling"] = req.Labour.Handling
		if *req.Labour != existing.Labour {
			changes["labour"] = shared.FieldChange{Old: existing.Labour, New: *req.Labour}
		}
	}
	if req.LabourRateType != nil && *req.LabourRateType != existing.LabourRateType {
		rate := settings.LabourRate(ctx, s.settings, *req.LabourRateType)
		updates["labour_rate_type"] = *req.LabourRateType
		updates["labour_rate"] = rate
		changes["labour_rate_type"] = shared.FieldChange{Old: existing.LabourRateType, New: *req.LabourRateType}
		changes["labour_rate"] = shared.FieldChange{Old: existing.LabourRate, New: rate}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Update(ctx, id, updates); err != nil {
			return fmt.Errorf("update quote: %w", err)
		}
		_, err := s.recalculate(ctx, repo, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.updated", id, updatedBy, changes, nil)
	return s.repo.Get(ctx, id)
}

// Delete removes a draft quote and its lines.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusDraft {
		return fmt.Errorf("%w: status is %s", shared.ErrNotDeletable, existing.Status)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}

	s.audit(ctx, "quote.deleted", id, actorID, nil, map[string]any{
		"quote_number": existing.QuoteNumber,
		"revision":     existing.Revision,
	})
	return nil
}

// CreateRevision clones a quote into a fresh, independently editable
// draft: same quote number, revision+1, lines deep-copied, dates reset
// and the labour rate re-resolved from settings. The source quote is
// never touched.
func (s *Service) CreateRevision(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source quote: %w", err)
	}

	now := time.Now()
	clone := Quote{
		QuoteNumber:    src.QuoteNumber,
		Revision:       src.Revision + 1,
		Status:         StatusDraft,
		ClientID:       src.ClientID,
		ProjectID:      src.ProjectID,
		QuoteDate:      now,
		ExpiryDate:     now.AddDate(0, 0, settings.QuoteValidityDays(ctx, s.settings)),
		Labour:         src.Labour,
		LabourRateType: src.LabourRateType,
		LabourRate:     settings.LabourRate(ctx, s.settings, src.LabourRateType),
		Notes:          src.Notes,
		CreatedBy:      actorID,
		UpdatedBy:      actorID,
	}

	var newID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, clone)
		if err != nil {
			return fmt.Errorf("create revision: %w", err)
		}
		newID = id

		for _, line := range src.MaterialLines {
			copied := line
			copied.ID = 0
			copied.QuoteID = newID
			if _, err := repo.InsertMaterialLine(ctx, copied); err != nil {
				return fmt.Errorf("copy material line: %w", err)
			}
		}
		for _, line := range src.MiscLines {
			copied := line
			copied.ID = 0
			copied.QuoteID = newID
			if _, err := repo.InsertMiscLine(ctx, copied); err != nil {
				return fmt.Errorf("copy misc line: %w", err)
			}
		}

		_, err = s.recalculate(ctx, repo, newID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.revised", newID, actorID, nil, map[string]any{
		"quote_number": clone.QuoteNumber,
		"revision":     clone.Revision,
		"revision_of":  src.ID,
	})
	return s.repo.Get(ctx, newID)
}

// UpdateStatus sets any of the seven workflow states. Transitions are
// deliberately unconstrained beyond membership; archive/unarchive keep
// their own guards because they round-trip previous_status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, actorID int64) (*Quote, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidStatus, status)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	if err := s.repo.SetStatus(ctx, id, status, nil, actorID); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	s.audit(ctx, "quote.status_changed", id, actorID, map[string]shared.FieldChange{
		"status": {Old: existing.Status, New: status},
	}, nil)
	return s.repo.Get(ctx, id)
}

// Archive parks the quote, remembering the status to restore.
func (s *Service) Archive(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status == StatusArchived {
		return existing, nil
	}

	prev := existing.Status
	if err := s.repo.SetStatus(ctx, id, StatusArchived, &prev, actorID); err != nil {
		return nil, fmt.Errorf("archive quote: %w", err)
	}

	s.audit(ctx, "quote.archived", id, actorID, map[string]shared.FieldChange{
		"status": {Old: prev, New: StatusArchived},
	}, nil)
	return s.repo.Get(ctx, id)
}

// Unarchive restores the stored pre-archive status, defaulting to
// draft when none was recorded.
func (s *Service) Unarchive(ctx context.Context, id int64, actorID int64) (*Quote, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Status != StatusArchived {
		return nil, shared.ErrNotArchived
	}

	restored := StatusDraft
	if existing.PreviousStatus != nil {
		restored = *existing.PreviousStatus
	}
	if err := s.repo.SetStatus(ctx, id, restored, nil, actorID); err != nil {
		return nil, fmt.Errorf("unarchive quote: %w", err)
	}

	s.audit(ctx, "quote.unarchived", id, actorID, map[string]shared.FieldChange{
		"status": {Old: StatusArchived, New: restored},
	}, nil)
	return s.repo.Get(ctx, id)
}

func (s *Service) editableQuote(ctx context.Context, id int64) (*Quote, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if !q.IsEditable() {
		return nil, shared.ErrNotEditable
	}
	return q, nil
}

// AddMaterialLine appends a material line and refreshes totals.
func (s *Service) AddMaterialLine(ctx context.Context, quoteID int64, req MaterialLineRequest, actorID int64) (*MaterialLine, error) {
	if _, err := s.editableQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	line, err := s.buildMaterialLine(ctx, quoteID, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		sortOrder, err := repo.NextSortOrder(ctx, quoteID)
		if err != nil {
			return fmt.Errorf("next sort order: %w", err)
		}
		line.SortOrder = sortOrder
		id, err := repo.InsertMaterialLine(ctx, line)
		if err != nil {
			return fmt.Errorf("insert material line: %w", err)
		}
		line.ID = id
		_, err = s.recalculate(ctx, repo, quoteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.material_added", quoteID, actorID, nil, map[string]any{
		"line_id":     line.ID,
		"description": line.ItemDescription,
		"quantity":    line.Quantity,
		"line_total":  line.LineTotal,
	})
	return &line, nil
}

// UpdateMaterialLine edits a material line, recomputing its total and
// the quote totals.
func (s *Service) UpdateMaterialLine(ctx context.Context, quoteID, lineID int64, req UpdateMaterialLineRequest, actorID int64) (*MaterialLine, error) {
	if _, err := s.editableQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	line, err := s.repo.GetMaterialLine(ctx, quoteID, lineID)
	if err != nil {
		return nil, fmt.Errorf("get material line: %w", err)
	}

	changes := map[string]shared.FieldChange{}
	if req.ItemDescription != nil && *req.ItemDescription != line.ItemDescription {
		changes["item_description"] = shared.FieldChange{Old: line.ItemDescription, New: *req.ItemDescription}
		line.ItemDescription = *req.ItemDescription
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: material quantity must be positive", shared.ErrValidation)
		}
		changes["quantity"] = shared.FieldChange{Old: line.Quantity, New: *req.Quantity}
		line.Quantity = *req.Quantity
	}
	if req.UnitCost != nil {
		if *req.UnitCost < 0 {
			return nil, fmt.Errorf("%w: unit cost cannot be negative", shared.ErrValidation)
		}
		changes["unit_cost"] = shared.FieldChange{Old: line.UnitCost, New: *req.UnitCost}
		line.UnitCost = *req.UnitCost
	}
	// Never trusted from input.
	line.LineTotal = LineTotal(line.Quantity, line.UnitCost)

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateMaterialLine(ctx, *line); err != nil {
			return fmt.Errorf("update material line: %w", err)
		}
		_, err := s.recalculate(ctx, repo, quoteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.material_updated", quoteID, actorID, changes, map[string]any{"line_id": lineID})
	return line, nil
}

// RemoveMaterialLine deletes one material line and refreshes totals.
func (s *Service) RemoveMaterialLine(ctx context.Context, quoteID, lineID int64, actorID int64) error {
	if _, err := s.editableQuote(ctx, quoteID); err != nil {
		return err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteMaterialLine(ctx, quoteID, lineID); err != nil {
			return fmt.Errorf("delete material line: %w", err)
		}
		_, err := s.recalculate(ctx, repo, quoteID)
		return err
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "quote.material_removed", quoteID, actorID, nil, map[string]any{"line_id": lineID})
	return nil
}

// ClearMaterialLines removes every material line and refreshes totals.
func (s *Service) ClearMaterialLines(ctx context.Context, quoteID int64, actorID int64) error {
	if _, err := s.editableQuote(ctx, quoteID); err != nil {
		return err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteMaterialLines(ctx, quoteID); err != nil {
			return fmt.Errorf("clear material lines: %w", err)
		}
		_, err := s.recalculate(ctx, repo, quoteID)
		return err
	})
	if err != nil {
		return err
	}

	s.audit(ctx, "quote.materials_cleared", quoteID, actorID, nil, nil)
	return nil
}

// SetMiscLine toggles, reprices or rescales one flat-price extra. The
// row survives being unincluded so it stays visible in the editor.
// Extras added to the catalog after the quote was created get their
// line seeded on first touch.
func (s *Service) SetMiscLine(ctx context.Context, quoteID, miscMaterialID int64, req SetMiscLineRequest, actorID int64) (*MiscLine, error) {
	if _, err := s.editableQuote(ctx, quoteID); err != nil {
		return nil, err
	}

	line, err := s.repo.GetMiscLineByMaterial(ctx, quoteID, miscMaterialID)
	seed := false
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("get misc line: %w", err)
		}
		extra, err := s.catalog.GetMiscMaterial(ctx, miscMaterialID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown misc material %d", shared.ErrValidation, miscMaterialID)
			}
			return nil, fmt.Errorf("lookup misc material: %w", err)
		}
		line = &MiscLine{
			QuoteID:        quoteID,
			MiscMaterialID: extra.ID,
			Name:           extra.Name,
			Price:          extra.Price,
			Quantity:       1,
		}
		seed = true
	}

	changes := map[string]shared.FieldChange{}
	if req.Included != nil && *req.Included != line.Included {
		changes["included"] = shared.FieldChange{Old: line.Included, New: *req.Included}
		line.Included = *req.Included
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return nil, fmt.Errorf("%w: misc quantity must be at least 1", shared.ErrValidation)
		}
		changes["quantity"] = shared.FieldChange{Old: line.Quantity, New: *req.Quantity}
		line.Quantity = *req.Quantity
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: misc price cannot be negative", shared.ErrValidation)
		}
		changes["price"] = shared.FieldChange{Old: line.Price, New: *req.Price}
		line.Price = *req.Price
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if seed {
			id, err := repo.InsertMiscLine(ctx, *line)
			if err != nil {
				return fmt.Errorf("insert misc line: %w", err)
			}
			line.ID = id
		} else if err := repo.UpdateMiscLine(ctx, *line); err != nil {
			return fmt.Errorf("update misc line: %w", err)
		}
		_, err := s.recalculate(ctx, repo, quoteID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "quote.misc_updated", quoteID, actorID, changes, map[string]any{
		"misc_material_id": miscMaterialID,
	})
	return line, nil
}

// Recalculate re-derives the cached totals from current inputs.
func (s *Service) Recalculate(ctx context.Context, quoteID int64) (Totals, error) {
	var totals Totals
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		t, err := s.recalculate(ctx, repo, quoteID)
		if err != nil {
			return err
		}
		totals = t
		return nil
	})
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// ExpireOverdue marks sent quotes past their expiry date as expired.
// Called by the nightly sweep. Returns the number of quotes expired.
func (s *Service) ExpireOverdue(ctx context.Context, asOf time.Time) (int, error) {
	ids, err := s.repo.ListExpiredSent(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list expired quotes: %w", err)
	}

	expired := 0
	for _, id := range ids {
		if err := s.repo.SetStatus(ctx, id, StatusExpired, nil, 0); err != nil {
			if s.logger != nil {
				s.logger.Error("expire quote failed", slog.Int64("quote_id", id), slog.Any("error", err))
			}
			continue
		}
		s.audit(ctx, "quote.expired", id, 0, map[string]shared.FieldChange{
			"status": {Old: StatusSent, New: StatusExpired},
		}, nil)
		expired++
	}
	return expired, nil
}
