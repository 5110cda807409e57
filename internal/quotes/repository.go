package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workroom-erp/workroom-erp/internal/platform/db"
	"github.com/workroom-erp/workroom-erp/internal/shared"
)

// Repository provides PostgreSQL backed persistence for quotes and
// their line items.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Create(ctx context.Context, q Quote) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	UpdateTotals(ctx context.Context, id int64, t Totals) error
	SetStatus(ctx context.Context, id int64, status Status, previous *Status, updatedBy int64) error
	Delete(ctx context.Context, id int64) error

	ListMaterialLines(ctx context.Context, quoteID int64) ([]MaterialLine, error)
	GetMaterialLine(ctx context.Context, quoteID, lineID int64) (*MaterialLine, error)
	InsertMaterialLine(ctx context.Context, line MaterialLine) (int64, error)
	UpdateMaterialLine(ctx context.Context, line MaterialLine) error
	DeleteMaterialLine(ctx context.Context, quoteID, lineID int64) error
	DeleteMaterialLines(ctx context.Context, quoteID int64) error
	NextSortOrder(ctx context.Context, quoteID int64) (int, error)

	ListMiscLines(ctx context.Context, quoteID int64) ([]MiscLine, error)
	GetMiscLineByMaterial(ctx context.Context, quoteID, miscMaterialID int64) (*MiscLine, error)
	InsertMiscLine(ctx context.Context, line MiscLine) (int64, error)
	UpdateMiscLine(ctx context.Context, line MiscLine) error

	ListExpiredSent(ctx context.Context, asOf time.Time) ([]int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `
	id, quote_number, revision, status, previous_status, client_id, project_id,
	quote_date, expiry_date,
	labour_stripping, labour_patterns, labour_cutting, labour_sewing,
	labour_upholstery, labour_assembly, labour_handling,
	labour_rate_type, labour_rate,
	subtotal_materials, subtotal_misc, subtotal_labour,
	total_excl_gst, gst_amount, total_incl_gst,
	notes, created_by, updated_by, created_at, updated_at`

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var previousStatus, notes pgtype.Text
	var clientID, projectID pgtype.Int8
	var quoteDate, expiryDate pgtype.Date
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.Revision, &q.Status, &previousStatus, &clientID, &projectID,
		&quoteDate, &expiryDate,
		&q.Labour.Stripping, &q.Labour.Patterns, &q.Labour.Cutting, &q.Labour.Sewing,
		&q.Labour.Upholstery, &q.Labour.Assembly, &q.Labour.Handling,
		&q.LabourRateType, &q.LabourRate,
		&q.SubtotalMaterials, &q.SubtotalMisc, &q.SubtotalLabour,
		&q.TotalExclGST, &q.GSTAmount, &q.TotalInclGST,
		&notes, &q.CreatedBy, &q.UpdatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if previousStatus.Valid {
		s := Status(previousStatus.String)
		q.PreviousStatus = &s
	}
	if clientID.Valid {
		q.ClientID = &clientID.Int64
	}
	if projectID.Valid {
		q.ProjectID = &projectID.Int64
	}
	if quoteDate.Valid {
		q.QuoteDate = quoteDate.Time
	}
	if expiryDate.Valid {
		q.ExpiryDate = expiryDate.Time
	}
	if notes.Valid {
		q.Notes = &notes.String
	}
	if createdAt.Valid {
		q.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		q.UpdatedAt = updatedAt.Time
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	if q.MaterialLines, err = r.ListMaterialLines(ctx, id); err != nil {
		return nil, err
	}
	if q.MiscLines, err = r.ListMiscLines(ctx, id); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	} else if !req.IncludeArchived {
		conditions = append(conditions, fmt.Sprintf("status <> $%d", argPos))
		args = append(args, StatusArchived)
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.QuoteNumber != nil {
		conditions = append(conditions, fmt.Sprintf("quote_number = $%d", argPos))
		args = append(args, *req.QuoteNumber)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM quotes "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(
		"SELECT %s FROM quotes %s ORDER BY quote_date DESC, quote_number DESC, revision DESC LIMIT $%d OFFSET $%d",
		quoteColumns, whereClause, argPos, argPos+1,
	)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var clientID, projectID pgtype.Int8
	if q.ClientID != nil {
		clientID = pgtype.Int8{Int64: *q.ClientID, Valid: true}
	}
	if q.ProjectID != nil {
		projectID = pgtype.Int8{Int64: *q.ProjectID, Valid: true}
	}
	var notes pgtype.Text
	if q.Notes != nil {
		notes = pgtype.Text{String: *q.Notes, Valid: true}
	}

	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (
			quote_number, revision, status, client_id, project_id,
			quote_date, expiry_date,
			labour_stripping, labour_patterns, labour_cutting, labour_sewing,
			labour_upholstery, labour_assembly, labour_handling,
			labour_rate_type, labour_rate, notes,
			created_by, updated_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, NOW(), NOW()
		) RETURNING id`,
		q.QuoteNumber, q.Revision, q.Status, clientID, projectID,
		q.QuoteDate, q.ExpiryDate,
		q.Labour.Stripping, q.Labour.Patterns, q.Labour.Cutting, q.Labour.Sewing,
		q.Labour.Upholstery, q.Labour.Assembly, q.Labour.Handling,
		q.LabourRateType, q.LabourRate, notes,
		q.CreatedBy, q.UpdatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// updatableColumns guards the map-based partial update against
// unexpected keys.
var updatableColumns = []string{
	"client_id", "project_id", "quote_date", "expiry_date",
	"labour_stripping", "labour_patterns", "labour_cutting", "labour_sewing",
	"labour_upholstery", "labour_assembly", "labour_handling",
	"labour_rate_type", "labour_rate", "notes", "updated_by",
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE quotes SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range updatableColumns {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateTotals(ctx context.Context, id int64, t Totals) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET
			subtotal_materials = $1, subtotal_misc = $2, subtotal_labour = $3,
			total_excl_gst = $4, gst_amount = $5, total_incl_gst = $6,
			updated_at = NOW()
		WHERE id = $7`,
		t.Materials, t.Misc, t.Labour, t.ExclGST, t.GST, t.InclGST, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int64, status Status, previous *Status, updatedBy int64) error {
	var prev pgtype.Text
	if previous != nil {
		prev = pgtype.Text{String: string(*previous), Valid: true}
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes SET status = $1, previous_status = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $4`,
		status, prev, updatedBy, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM quote_material_lines WHERE quote_id = $1`, id); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM quote_misc_lines WHERE quote_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListMaterialLines(ctx context.Context, quoteID int64) ([]MaterialLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, material_id, item_description, quantity, unit_cost, line_total, sort_order
		FROM quote_material_lines WHERE quote_id = $1 ORDER BY sort_order, id`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MaterialLine
	for rows.Next() {
		line, err := scanMaterialLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *line)
	}
	return out, rows.Err()
}

func scanMaterialLine(row pgx.Row) (*MaterialLine, error) {
	var line MaterialLine
	var materialID pgtype.Int8
	err := row.Scan(&line.ID, &line.QuoteID, &materialID, &line.ItemDescription,
		&line.Quantity, &line.UnitCost, &line.LineTotal, &line.SortOrder)
	if err != nil {
		return nil, err
	}
	if materialID.Valid {
		line.MaterialID = &materialID.Int64
	}
	return &line, nil
}

func (r *repository) GetMaterialLine(ctx context.Context, quoteID, lineID int64) (*MaterialLine, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, quote_id, material_id, item_description, quantity, unit_cost, line_total, sort_order
		FROM quote_material_lines WHERE quote_id = $1 AND id = $2`, quoteID, lineID)
	line, err := scanMaterialLine(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return line, nil
}

func (r *repository) InsertMaterialLine(ctx context.Context, line MaterialLine) (int64, error) {
	var materialID pgtype.Int8
	if line.MaterialID != nil {
		materialID = pgtype.Int8{Int64: *line.MaterialID, Valid: true}
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_material_lines (quote_id, material_id, item_description, quantity, unit_cost, line_total, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		line.QuoteID, materialID, line.ItemDescription, line.Quantity, line.UnitCost, line.LineTotal, line.SortOrder,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateMaterialLine(ctx context.Context, line MaterialLine) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quote_material_lines
		SET item_description = $1, quantity = $2, unit_cost = $3, line_total = $4
		WHERE quote_id = $5 AND id = $6`,
		line.ItemDescription, line.Quantity, line.UnitCost, line.LineTotal, line.QuoteID, line.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteMaterialLine(ctx context.Context, quoteID, lineID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quote_material_lines WHERE quote_id = $1 AND id = $2`, quoteID, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteMaterialLines(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_material_lines WHERE quote_id = $1`, quoteID)
	return err
}

func (r *repository) NextSortOrder(ctx context.Context, quoteID int64) (int, error) {
	var next int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), 0) + 1 FROM quote_material_lines WHERE quote_id = $1`, quoteID,
	).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) ListMiscLines(ctx context.Context, quoteID int64) ([]MiscLine, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, misc_material_id, name, price, quantity, included
		FROM quote_misc_lines WHERE quote_id = $1 ORDER BY name, id`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MiscLine
	for rows.Next() {
		var line MiscLine
		if err := rows.Scan(&line.ID, &line.QuoteID, &line.MiscMaterialID,
			&line.Name, &line.Price, &line.Quantity, &line.Included); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

func (r *repository) GetMiscLineByMaterial(ctx context.Context, quoteID, miscMaterialID int64) (*MiscLine, error) {
	var line MiscLine
	err := r.db.QueryRow(ctx, `
		SELECT id, quote_id, misc_material_id, name, price, quantity, included
		FROM quote_misc_lines WHERE quote_id = $1 AND misc_material_id = $2`,
		quoteID, miscMaterialID,
	).Scan(&line.ID, &line.QuoteID, &line.MiscMaterialID, &line.Name, &line.Price, &line.Quantity, &line.Included)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

func (r *repository) InsertMiscLine(ctx context.Context, line MiscLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quote_misc_lines (quote_id, misc_material_id, name, price, quantity, included)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		line.QuoteID, line.MiscMaterialID, line.Name, line.Price, line.Quantity, line.Included,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateMiscLine(ctx context.Context, line MiscLine) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quote_misc_lines SET price = $1, quantity = $2, included = $3
		WHERE quote_id = $4 AND id = $5`,
		line.Price, line.Quantity, line.Included, line.QuoteID, line.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListExpiredSent(ctx context.Context, asOf time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM quotes WHERE status = $1 AND expiry_date < $2`, StatusSent, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
