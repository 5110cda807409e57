package quotes

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workroom-erp/workroom-erp/internal/catalog"
	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	quotes        map[int64]*Quote
	materialLines map[int64][]MaterialLine
	miscLines     map[int64][]MiscLine
	nextQuoteID   int64
	nextLineID    int64
	nextMiscID    int64

	// Error injection
	txError           error
	createError       error
	getError          error
	updateTotalsError error
	setStatusError    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotes:        make(map[int64]*Quote),
		materialLines: make(map[int64][]MaterialLine),
		miscLines:     make(map[int64][]MiscLine),
		nextQuoteID:   1,
		nextLineID:    1,
		nextMiscID:    1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quote, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	q, ok := m.quotes[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *q
	out.MaterialLines = append([]MaterialLine(nil), m.materialLines[id]...)
	out.MiscLines = append([]MiscLine(nil), m.miscLines[id]...)
	return &out, nil
}

func (m *mockRepository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	var out []Quote
	for _, q := range m.quotes {
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		if req.Status == nil && !req.IncludeArchived && q.Status == StatusArchived {
			continue
		}
		if req.ClientID != nil && (q.ClientID == nil || *q.ClientID != *req.ClientID) {
			continue
		}
		out = append(out, *q)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, q Quote) (int64, error) {
	if m.createError != nil {
		return 0, m.createError
	}
	q.ID = m.nextQuoteID
	m.nextQuoteID++
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	stored := q
	m.quotes[q.ID] = &stored
	return q.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	q, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	for col, v := range updates {
		switch col {
		case "client_id":
			cid := v.(int64)
			q.ClientID = &cid
		case "project_id":
			pid := v.(int64)
			q.ProjectID = &pid
		case "quote_date":
			q.QuoteDate = v.(time.Time)
		case "expiry_date":
			q.ExpiryDate = v.(time.Time)
		case "labour_stripping":
			q.Labour.Stripping = v.(int)
		case "labour_patterns":
			q.Labour.Patterns = v.(int)
		case "labour_cutting":
			q.Labour.Cutting = v.(int)
		case "labour_sewing":
			q.Labour.Sewing = v.(int)
		case "labour_upholstery":
			q.Labour.Upholstery = v.(int)
		case "labour_assembly":
			q.Labour.Assembly = v.(int)
		case "labour_handling":
			q.Labour.Handling = v.(int)
		case "labour_rate_type":
			q.LabourRateType = v.(string)
		case "labour_rate":
			q.LabourRate = v.(float64)
		case "notes":
			n := v.(string)
			q.Notes = &n
		case "updated_by":
			q.UpdatedBy = v.(int64)
		}
	}
	q.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) UpdateTotals(ctx context.Context, id int64, t Totals) error {
	if m.updateTotalsError != nil {
		return m.updateTotalsError
	}
	q, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.SubtotalMaterials = t.Materials
	q.SubtotalMisc = t.Misc
	q.SubtotalLabour = t.Labour
	q.TotalExclGST = t.ExclGST
	q.GSTAmount = t.GST
	q.TotalInclGST = t.InclGST
	return nil
}

func (m *mockRepository) SetStatus(ctx context.Context, id int64, status Status, previous *Status, updatedBy int64) error {
	if m.setStatusError != nil {
		return m.setStatusError
	}
	q, ok := m.quotes[id]
	if !ok {
		return shared.ErrNotFound
	}
	q.Status = status
	q.PreviousStatus = previous
	q.UpdatedBy = updatedBy
	q.UpdatedAt = time.Now()
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.quotes[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.quotes, id)
	delete(m.materialLines, id)
	delete(m.miscLines, id)
	return nil
}

func (m *mockRepository) ListMaterialLines(ctx context.Context, quoteID int64) ([]MaterialLine, error) {
	return append([]MaterialLine(nil), m.materialLines[quoteID]...), nil
}

func (m *mockRepository) GetMaterialLine(ctx context.Context, quoteID, lineID int64) (*MaterialLine, error) {
	for _, line := range m.materialLines[quoteID] {
		if line.ID == lineID {
			out := line
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) InsertMaterialLine(ctx context.Context, line MaterialLine) (int64, error) {
	line.ID = m.nextLineID
	m.nextLineID++
	m.materialLines[line.QuoteID] = append(m.materialLines[line.QuoteID], line)
	return line.ID, nil
}

func (m *mockRepository) UpdateMaterialLine(ctx context.Context, line MaterialLine) error {
	lines := m.materialLines[line.QuoteID]
	for i := range lines {
		if lines[i].ID == line.ID {
			lines[i] = line
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepository) DeleteMaterialLine(ctx context.Context, quoteID, lineID int64) error {
	lines := m.materialLines[quoteID]
	for i := range lines {
		if lines[i].ID == lineID {
			m.materialLines[quoteID] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepository) DeleteMaterialLines(ctx context.Context, quoteID int64) error {
	m.materialLines[quoteID] = nil
	return nil
}

func (m *mockRepository) NextSortOrder(ctx context.Context, quoteID int64) (int, error) {
	max := 0
	for _, line := range m.materialLines[quoteID] {
		if line.SortOrder > max {
			max = line.SortOrder
		}
	}
	return max + 1, nil
}

func (m *mockRepository) ListMiscLines(ctx context.Context, quoteID int64) ([]MiscLine, error) {
	return append([]MiscLine(nil), m.miscLines[quoteID]...), nil
}

func (m *mockRepository) GetMiscLineByMaterial(ctx context.Context, quoteID, miscMaterialID int64) (*MiscLine, error) {
	for _, line := range m.miscLines[quoteID] {
		if line.MiscMaterialID == miscMaterialID {
			out := line
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) InsertMiscLine(ctx context.Context, line MiscLine) (int64, error) {
	line.ID = m.nextMiscID
	m.nextMiscID++
	m.miscLines[line.QuoteID] = append(m.miscLines[line.QuoteID], line)
	return line.ID, nil
}

func (m *mockRepository) UpdateMiscLine(ctx context.Context, line MiscLine) error {
	lines := m.miscLines[line.QuoteID]
	for i := range lines {
		if lines[i].ID == line.ID {
			lines[i] = line
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *mockRepository) ListExpiredSent(ctx context.Context, asOf time.Time) ([]int64, error) {
	var ids []int64
	for id, q := range m.quotes {
		if q.Status == StatusSent && q.ExpiryDate.Before(asOf) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ============================================================================
// STUBS
// ============================================================================

// stubSettings answers every lookup with the caller's default, which
// matches a fresh install: gst 15%, standard $75/h, premium $95/h,
// 30 validity days.
type stubSettings struct{}

func (stubSettings) GetFloat(ctx context.Context, key string, def float64) float64 { return def }
func (stubSettings) GetInt(ctx context.Context, key string, def int) int           { return def }
func (stubSettings) GetString(ctx context.Context, key, def string) string         { return def }

type stubSequencer struct {
	next    int64
	nextErr error
}

func (s *stubSequencer) Next(ctx context.Context, docType string, year int) (int64, error) {
	if s.nextErr != nil {
		return 0, s.nextErr
	}
	s.next++
	return s.next, nil
}

type stubCatalog struct {
	materials map[int64]catalog.Material
	misc      []catalog.MiscMaterial
	listErr   error
}

func (s *stubCatalog) GetMaterial(ctx context.Context, id int64) (*catalog.Material, error) {
	m, ok := s.materials[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &m, nil
}

func (s *stubCatalog) ListMaterials(ctx context.Context) ([]catalog.Material, error) {
	var out []catalog.Material
	for _, m := range s.materials {
		out = append(out, m)
	}
	return out, nil
}

func (s *stubCatalog) GetMiscMaterial(ctx context.Context, id int64) (*catalog.MiscMaterial, error) {
	for _, m := range s.misc {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubCatalog) ListActiveMiscMaterials(ctx context.Context) ([]catalog.MiscMaterial, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]catalog.MiscMaterial(nil), s.misc...), nil
}

type recordingSink struct {
	entries []shared.AuditEntry
}

func (s *recordingSink) Record(ctx context.Context, entry shared.AuditEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func newTestService() (*Service, *mockRepository, *stubCatalog, *recordingSink) {
	repo := newMockRepository()
	cat := &stubCatalog{
		materials: map[int64]catalog.Material{
			1: {ID: 1, Name: "Wool fabric", Unit: "m", UnitCost: 42.50, Active: true},
			2: {ID: 2, Name: "Webbing", Unit: "m", UnitCost: 3.10, Active: true},
		},
		misc: []catalog.MiscMaterial{
			{ID: 10, Name: "Buttons", Price: 20, Active: true},
			{ID: 11, Name: "Piping", Price: 35, Active: true},
		},
	}
	sink := &recordingSink{}
	svc := NewService(repo, stubSettings{}, &stubSequencer{}, cat, sink, slog.Default())
	return svc, repo, cat, sink
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// ============================================================================
// CREATE
// ============================================================================

func TestCreateQuote(t *testing.T) {
	svc, _, _, sink := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:  7,
		QuoteDate: date(2025, time.March, 10),
		Labour:    LabourMinutes{Upholstery: 60, Sewing: 30},
		MaterialLines: []MaterialLineRequest{
			{ItemDescription: "Fabric", Quantity: 10, UnitCost: float64Ptr(10)},
		},
	}, 3)
	require.NoError(t, err)

	assert.Equal(t, "Q2025-0001", q.QuoteNumber)
	assert.Equal(t, 1, q.Revision)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, int64(3), q.CreatedBy)
	require.NotNil(t, q.ClientID)
	assert.Equal(t, int64(7), *q.ClientID)
	assert.Equal(t, RateTypeStandard, q.LabourRateType)
	assert.InDelta(t, 75, q.LabourRate, 1e-9)

	// Expiry defaults to quote date plus the validity window.
	assert.Equal(t, time.Date(2025, time.April, 9, 0, 0, 0, 0, time.UTC), q.ExpiryDate)

	// Every active catalog extra is seeded unincluded.
	require.Len(t, q.MiscLines, 2)
	for _, line := range q.MiscLines {
		assert.False(t, line.Included)
		assert.Equal(t, 1, line.Quantity)
	}

	require.Len(t, q.MaterialLines, 1)
	assert.InDelta(t, 100, q.MaterialLines[0].LineTotal, 1e-9)

	assert.InDelta(t, 100, q.SubtotalMaterials, 1e-9)
	assert.InDelta(t, 0, q.SubtotalMisc, 1e-9)
	assert.InDelta(t, 112.50, q.SubtotalLabour, 1e-9)
	assert.InDelta(t, 212.50, q.TotalExclGST, 1e-9)
	assert.InDelta(t, 31.88, q.GSTAmount, 1e-9)
	assert.InDelta(t, 244.38, q.TotalInclGST, 1e-9)

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "quote.created", sink.entries[0].Action)
}

func TestCreateQuoteSequentialNumbers(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 2)}, 1)
	require.NoError(t, err)

	assert.Equal(t, "Q2025-0001", first.QuoteNumber)
	assert.Equal(t, "Q2025-0002", second.QuoteNumber)
}

func TestCreateQuoteMaterialFromCatalog(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:  1,
		QuoteDate: date(2025, time.May, 1),
		MaterialLines: []MaterialLineRequest{
			{MaterialID: int64Ptr(1), Quantity: 2},
		},
	}, 1)
	require.NoError(t, err)

	require.Len(t, q.MaterialLines, 1)
	line := q.MaterialLines[0]
	assert.Equal(t, "Wool fabric", line.ItemDescription)
	assert.InDelta(t, 42.50, line.UnitCost, 1e-9)
	assert.InDelta(t, 85, line.LineTotal, 1e-9)
}

func TestCreateQuoteUnknownMaterial(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateQuoteRequest{
		ClientID:      1,
		MaterialLines: []MaterialLineRequest{{MaterialID: int64Ptr(999), Quantity: 1}},
	}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateQuoteSequencerFailure(t *testing.T) {
	repo := newMockRepository()
	seq := &stubSequencer{nextErr: errors.New("sequence unavailable")}
	svc := NewService(repo, stubSettings{}, seq, &stubCatalog{}, shared.NoopAuditSink{}, slog.Default())

	_, err := svc.Create(context.Background(), CreateQuoteRequest{ClientID: 1}, 1)
	require.Error(t, err)
	assert.Empty(t, repo.quotes)
}

// ============================================================================
// UPDATE
// ============================================================================

func TestUpdateQuoteRecalculatesTotals(t *testing.T) {
	svc, _, _, sink := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, q.ID, UpdateQuoteRequest{
		Labour: &LabourMinutes{Upholstery: 120},
	}, 2)
	require.NoError(t, err)

	assert.InDelta(t, 150, updated.SubtotalLabour, 1e-9)
	assert.InDelta(t, 150, updated.TotalExclGST, 1e-9)
	assert.InDelta(t, 22.50, updated.GSTAmount, 1e-9)
	assert.InDelta(t, 172.50, updated.TotalInclGST, 1e-9)
	assert.Equal(t, int64(2), updated.UpdatedBy)

	require.Len(t, sink.entries, 2)
	assert.Equal(t, "quote.updated", sink.entries[1].Action)
}

func TestUpdateQuoteRateTypeChange(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:  1,
		QuoteDate: date(2025, time.May, 1),
		Labour:    LabourMinutes{Upholstery: 60},
	}, 1)
	require.NoError(t, err)
	require.InDelta(t, 75, q.SubtotalLabour, 1e-9)

	updated, err := svc.Update(ctx, q.ID, UpdateQuoteRequest{
		LabourRateType: stringPtr(RateTypePremium),
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, RateTypePremium, updated.LabourRateType)
	assert.InDelta(t, 95, updated.LabourRate, 1e-9)
	assert.InDelta(t, 95, updated.SubtotalLabour, 1e-9)
}

func TestUpdateQuoteDraftOnly(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	repo.quotes[q.ID].Status = StatusSent

	_, err = svc.Update(ctx, q.ID, UpdateQuoteRequest{Notes: stringPtr("late edit")}, 1)
	assert.ErrorIs(t, err, shared.ErrNotEditable)
}

func TestUpdateQuoteNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Update(context.Background(), 404, UpdateQuoteRequest{}, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// ============================================================================
// DELETE
// ============================================================================

func TestDeleteDraftQuote(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, q.ID, 1))
	assert.Empty(t, repo.quotes)
	assert.Empty(t, repo.materialLines[q.ID])
	assert.Empty(t, repo.miscLines[q.ID])
}

func TestDeleteNonDraftQuote(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	repo.quotes[q.ID].Status = StatusAccepted

	err = svc.Delete(ctx, q.ID, 1)
	assert.ErrorIs(t, err, shared.ErrNotDeletable)
	assert.Len(t, repo.quotes, 1)
}

// ============================================================================
// REVISIONS
// ============================================================================

func TestCreateRevision(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	src, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:  5,
		QuoteDate: date(2025, time.May, 1),
		Labour:    LabourMinutes{Upholstery: 90},
		MaterialLines: []MaterialLineRequest{
			{ItemDescription: "Fabric", Quantity: 4, UnitCost: float64Ptr(25)},
			{ItemDescription: "Thread", Quantity: 2, UnitCost: float64Ptr(5)},
		},
	}, 1)
	require.NoError(t, err)
	repo.quotes[src.ID].Status = StatusSent

	rev, err := svc.CreateRevision(ctx, src.ID, 2)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, rev.ID)
	assert.Equal(t, src.QuoteNumber, rev.QuoteNumber)
	assert.Equal(t, src.Revision+1, rev.Revision)
	assert.Equal(t, StatusDraft, rev.Status)
	assert.Equal(t, int64(2), rev.CreatedBy)

	// Lines are value-equal but distinct rows.
	require.Len(t, rev.MaterialLines, len(src.MaterialLines))
	for i, line := range rev.MaterialLines {
		assert.NotEqual(t, src.MaterialLines[i].ID, line.ID)
		assert.Equal(t, rev.ID, line.QuoteID)
		assert.Equal(t, src.MaterialLines[i].ItemDescription, line.ItemDescription)
		assert.InDelta(t, src.MaterialLines[i].LineTotal, line.LineTotal, 1e-9)
	}
	require.Len(t, rev.MiscLines, len(src.MiscLines))

	// The source is untouched.
	orig, err := svc.Get(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, orig.Status)
	assert.Equal(t, src.Revision, orig.Revision)
	assert.Len(t, orig.MaterialLines, 2)

	// Editing the revision leaves the source totals alone.
	require.NoError(t, svc.RemoveMaterialLine(ctx, rev.ID, rev.MaterialLines[0].ID, 2))
	orig, err = svc.Get(ctx, src.ID)
	require.NoError(t, err)
	assert.InDelta(t, src.SubtotalMaterials, orig.SubtotalMaterials, 1e-9)
}

// ============================================================================
// STATUS / ARCHIVE
// ============================================================================

func TestUpdateStatus(t *testing.T) {
	svc, _, _, sink := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, q.ID, StatusSent, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, updated.Status)
	assert.Nil(t, updated.PreviousStatus)

	last := sink.entries[len(sink.entries)-1]
	assert.Equal(t, "quote.status_changed", last.Action)
	assert.Equal(t, StatusDraft, last.Changes["status"].Old)
	assert.Equal(t, StatusSent, last.Changes["status"].New)
}

func TestUpdateStatusInvalid(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, q.ID, "approved", 1)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestArchiveUnarchiveRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, q.ID, StatusSent, 1)
	require.NoError(t, err)

	archived, err := svc.Archive(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)
	require.NotNil(t, archived.PreviousStatus)
	assert.Equal(t, StatusSent, *archived.PreviousStatus)

	// Archiving twice is a no-op, not an error.
	again, err := svc.Archive(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, again.Status)

	restored, err := svc.Unarchive(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, restored.Status)
	assert.Nil(t, restored.PreviousStatus)
}

func TestUnarchiveDefaultsToDraft(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	repo.quotes[q.ID].Status = StatusArchived
	repo.quotes[q.ID].PreviousStatus = nil

	restored, err := svc.Unarchive(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, restored.Status)
}

func TestUnarchiveNotArchived(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	_, err = svc.Unarchive(ctx, q.ID, 1)
	assert.ErrorIs(t, err, shared.ErrNotArchived)
}

// ============================================================================
// LINES
// ============================================================================

func TestAddMaterialLineRecalculates(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	line, err := svc.AddMaterialLine(ctx, q.ID, MaterialLineRequest{
		ItemDescription: "Horsehair pad",
		Quantity:        3,
		UnitCost:        float64Ptr(12.40),
	}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, line.SortOrder)
	assert.InDelta(t, 37.20, line.LineTotal, 1e-9)

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 37.20, refreshed.SubtotalMaterials, 1e-9)
	assert.InDelta(t, 37.20, refreshed.TotalExclGST, 1e-9)
}

func TestAddMaterialLineNonDraft(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	repo.quotes[q.ID].Status = StatusInvoiced

	_, err = svc.AddMaterialLine(ctx, q.ID, MaterialLineRequest{ItemDescription: "x", Quantity: 1}, 1)
	assert.ErrorIs(t, err, shared.ErrNotEditable)
}

func TestUpdateMaterialLineRecomputesTotal(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:      1,
		QuoteDate:     date(2025, time.May, 1),
		MaterialLines: []MaterialLineRequest{{ItemDescription: "Fabric", Quantity: 2, UnitCost: float64Ptr(10)}},
	}, 1)
	require.NoError(t, err)

	line, err := svc.UpdateMaterialLine(ctx, q.ID, q.MaterialLines[0].ID, UpdateMaterialLineRequest{
		Quantity: float64Ptr(5),
	}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 50, line.LineTotal, 1e-9)

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50, refreshed.SubtotalMaterials, 1e-9)
}

func TestClearMaterialLines(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:  1,
		QuoteDate: date(2025, time.May, 1),
		MaterialLines: []MaterialLineRequest{
			{ItemDescription: "A", Quantity: 1, UnitCost: float64Ptr(10)},
			{ItemDescription: "B", Quantity: 1, UnitCost: float64Ptr(20)},
		},
	}, 1)
	require.NoError(t, err)
	require.InDelta(t, 30, q.SubtotalMaterials, 1e-9)

	require.NoError(t, svc.ClearMaterialLines(ctx, q.ID, 1))

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Empty(t, refreshed.MaterialLines)
	assert.InDelta(t, 0, refreshed.SubtotalMaterials, 1e-9)
}

func TestSetMiscLineToggle(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	require.InDelta(t, 0, q.SubtotalMisc, 1e-9)

	line, err := svc.SetMiscLine(ctx, q.ID, 10, SetMiscLineRequest{Included: boolPtr(true)}, 1)
	require.NoError(t, err)
	assert.True(t, line.Included)

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20, refreshed.SubtotalMisc, 1e-9)

	// Excluding it again zeroes the contribution but keeps the row.
	_, err = svc.SetMiscLine(ctx, q.ID, 10, SetMiscLineRequest{Included: boolPtr(false)}, 1)
	require.NoError(t, err)

	refreshed, err = svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, refreshed.SubtotalMisc, 1e-9)
	assert.Len(t, refreshed.MiscLines, 2)
}

func TestSetMiscLineSeedsNewCatalogEntry(t *testing.T) {
	svc, _, cat, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)
	require.Len(t, q.MiscLines, 2)

	// Extra added to the catalog after the quote was created.
	cat.misc = append(cat.misc, catalog.MiscMaterial{ID: 12, Name: "Castors", Price: 48, Active: true})

	line, err := svc.SetMiscLine(ctx, q.ID, 12, SetMiscLineRequest{Included: boolPtr(true), Quantity: intPtr(2)}, 1)
	require.NoError(t, err)
	assert.Equal(t, "Castors", line.Name)

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, refreshed.MiscLines, 3)
	assert.InDelta(t, 96, refreshed.SubtotalMisc, 1e-9)
}

func TestSetMiscLineUnknownMaterial(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.May, 1)}, 1)
	require.NoError(t, err)

	_, err = svc.SetMiscLine(ctx, q.ID, 999, SetMiscLineRequest{Included: boolPtr(true)}, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// ============================================================================
// RECALCULATE / EXPIRY
// ============================================================================

func TestRecalculateRepairsDriftedTotals(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	q, err := svc.Create(ctx, CreateQuoteRequest{
		ClientID:      1,
		QuoteDate:     date(2025, time.May, 1),
		MaterialLines: []MaterialLineRequest{{ItemDescription: "Fabric", Quantity: 10, UnitCost: float64Ptr(10)}},
	}, 1)
	require.NoError(t, err)

	repo.quotes[q.ID].TotalInclGST = 9999

	totals, err := svc.Recalculate(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100, totals.Materials, 1e-9)
	assert.InDelta(t, 115, totals.InclGST, 1e-9)

	refreshed, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.InDelta(t, 115, refreshed.TotalInclGST, 1e-9)
}

func TestExpireOverdue(t *testing.T) {
	svc, repo, _, sink := newTestService()
	ctx := context.Background()

	overdue, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.January, 1)}, 1)
	require.NoError(t, err)
	current, err := svc.Create(ctx, CreateQuoteRequest{ClientID: 1, QuoteDate: date(2025, time.June, 1)}, 1)
	require.NoError(t, err)
	repo.quotes[overdue.ID].Status = StatusSent
	repo.quotes[current.ID].Status = StatusSent

	expired, err := svc.ExpireOverdue(ctx, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, StatusExpired, repo.quotes[overdue.ID].Status)
	assert.Equal(t, StatusSent, repo.quotes[current.ID].Status)

	last := sink.entries[len(sink.entries)-1]
	assert.Equal(t, "quote.expired", last.Action)
}

// ============================================================================
// HELPERS
// ============================================================================

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }
func boolPtr(v bool) *bool          { return &v }
