// Package storage is the Postgres-backed implementation of the RFP store,
// the catalog inventory and the price book.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/catalog"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

// daysPerMonth matches the due-within horizon arithmetic used everywhere
// else: months are 30-day months.
const daysPerMonth = 30

// Postgres wraps the SQL connection and implements the storage contracts.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, logger *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Postgres{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing connection (used by tests).
func NewWithDB(db *sql.DB, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// Close closes the underlying connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rfps (
		id          SERIAL PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		title       TEXT NOT NULL,
		source_url  TEXT NOT NULL,
		due_date    DATE NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rfp_line_items (
		id          SERIAL PRIMARY KEY,
		rfp_id      INTEGER NOT NULL REFERENCES rfps (id) ON DELETE CASCADE,
		line_no     INTEGER NOT NULL,
		description TEXT NOT NULL,
		quantity_m  NUMERIC(14,2) NOT NULL,
		conductor   TEXT,
		insulation  TEXT,
		voltage_kv  NUMERIC(8,2),
		cores       NUMERIC(6,2),
		size_sqmm   NUMERIC(8,2),
		armoured    BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (rfp_id, line_no)
	);

	CREATE TABLE IF NOT EXISTS rfp_tests (
		rfp_id    INTEGER NOT NULL REFERENCES rfps (id) ON DELETE CASCADE,
		test_code TEXT NOT NULL,
		UNIQUE (rfp_id, test_code)
	);

	CREATE TABLE IF NOT EXISTS products (
		sku         TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		category    TEXT NOT NULL,
		conductor   TEXT,
		insulation  TEXT,
		voltage_kv  NUMERIC(8,2),
		cores       NUMERIC(6,2),
		size_sqmm   NUMERIC(8,2),
		application TEXT,
		armoured    BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS sku_prices (
		sku        TEXT PRIMARY KEY,
		unit_price NUMERIC(12,2) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS test_prices (
		test_code TEXT PRIMARY KEY,
		price     NUMERIC(12,2) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rfps_source_due ON rfps (source_url, due_date);
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Save stores the RFP with its line items and tests in one transaction. It
// reports false when the external id already exists.
func (p *Postgres) Save(ctx context.Context, r *rfp.RFP) (inserted bool, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO rfps (external_id, title, source_url, due_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id
	`, r.ExternalID, r.Title, r.SourceURL, r.DueDate).Scan(&id)
	if err == sql.ErrNoRows {
		// Known external id: idempotent no-op.
		err = tx.Rollback()
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("inserting rfp: %w", err)
	}

	for _, li := range r.LineItems {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rfp_line_items
				(rfp_id, line_no, description, quantity_m, conductor, insulation, voltage_kv, cores, size_sqmm, armoured)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, id, li.LineNo, li.Description, li.QuantityM,
			li.Required[specs.AttrConductor].String(),
			li.Required[specs.AttrInsulation].String(),
			li.Required[specs.AttrVoltageKV].Float(),
			li.Required[specs.AttrCores].Float(),
			li.Required[specs.AttrSizeSqmm].Float(),
			li.Required[specs.AttrArmoured].String() == "true",
		)
		if err != nil {
			return false, fmt.Errorf("inserting line item %d: %w", li.LineNo, err)
		}
	}

	for _, code := range r.Tests {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rfp_tests (rfp_id, test_code) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, code)
		if err != nil {
			return false, fmt.Errorf("inserting test %s: %w", code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("committing rfp: %w", err)
	}
	return true, nil
}

// FindByExternalID returns the stored RFP, or nil when the id is unknown.
func (p *Postgres) FindByExternalID(ctx context.Context, externalID string) (*rfp.RFP, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, external_id, title, source_url, due_date
		FROM rfps WHERE external_id = $1
	`, externalID)

	r, id, err := scanRFP(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying rfp %s: %w", externalID, err)
	}

	if err := p.loadChildren(ctx, id, r); err != nil {
		return nil, err
	}
	return r, nil
}

// FindDueWithin returns RFPs from the given source URLs due within the next
// `months` 30-day months.
func (p *Postgres) FindDueWithin(ctx context.Context, urls []string, months int) ([]*rfp.RFP, error) {
	cutoff := time.Now().AddDate(0, 0, months*daysPerMonth)

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, external_id, title, source_url, due_date
		FROM rfps
		WHERE source_url = ANY($1) AND due_date <= $2
		ORDER BY due_date
	`, pq.Array(urls), cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying due rfps: %w", err)
	}
	defer rows.Close()

	var result []*rfp.RFP
	var ids []int64
	for rows.Next() {
		r, id, err := scanRFP(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rfp: %w", err)
		}
		result = append(result, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rfps: %w", err)
	}

	for i, r := range result {
		if err := p.loadChildren(ctx, ids[i], r); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ListProducts returns the catalog snapshot.
func (p *Postgres) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT sku, name, category, conductor, insulation, voltage_kv, cores, size_sqmm, application, armoured
		FROM products ORDER BY sku
	`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var prod catalog.Product
		var conductor, insulation, application sql.NullString
		var voltage, cores, size sql.NullFloat64
		var armoured bool
		if err := rows.Scan(&prod.SKU, &prod.Name, &prod.Category, &conductor, &insulation, &voltage, &cores, &size, &application, &armoured); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		prod.Specs = specFromColumns(conductor.String, insulation.String, voltage.Float64, cores.Float64, size.Float64, armoured)
		if application.String != "" {
			prod.Specs[specs.AttrApplication] = specs.Text(application.String)
		}
		products = append(products, prod)
	}
	return products, rows.Err()
}

// PriceForSKU looks up the unit price. Unknown SKUs and query failures price
// as zero; pricing degrades, it does not fail.
func (p *Postgres) PriceForSKU(ctx context.Context, sku string) float64 {
	var price float64
	err := p.db.QueryRowContext(ctx,
		`SELECT unit_price FROM sku_prices WHERE sku = $1`, sku,
	).Scan(&price)
	if err == sql.ErrNoRows {
		return 0
	}
	if err != nil {
		p.logger.Warn("sku price lookup failed", zap.String("sku", sku), zap.Error(err))
		return 0
	}
	return price
}

// PricesForTests looks up flat test prices. Unknown codes are absent from the
// returned map.
func (p *Postgres) PricesForTests(ctx context.Context, codes []string) map[string]float64 {
	prices := make(map[string]float64, len(codes))
	if len(codes) == 0 {
		return prices
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT test_code, price FROM test_prices WHERE test_code = ANY($1)`, pq.Array(codes),
	)
	if err != nil {
		p.logger.Warn("test price lookup failed", zap.Strings("codes", codes), zap.Error(err))
		return prices
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var price float64
		if err := rows.Scan(&code, &price); err != nil {
			p.logger.Warn("scanning test price failed", zap.Error(err))
			continue
		}
		prices[code] = price
	}
	return prices
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRFP(row rowScanner) (*rfp.RFP, int64, error) {
	var r rfp.RFP
	var id int64
	if err := row.Scan(&id, &r.ExternalID, &r.Title, &r.SourceURL, &r.DueDate); err != nil {
		return nil, 0, err
	}
	return &r, id, nil
}

func (p *Postgres) loadChildren(ctx context.Context, id int64, r *rfp.RFP) error {
	rows, err := p.db.QueryContext(ctx, `
		SELECT line_no, description, quantity_m, conductor, insulation, voltage_kv, cores, size_sqmm, armoured
		FROM rfp_line_items WHERE rfp_id = $1 ORDER BY line_no
	`, id)
	if err != nil {
		return fmt.Errorf("querying line items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li rfp.LineItem
		var conductor, insulation sql.NullString
		var voltage, cores, size sql.NullFloat64
		var armoured bool
		if err := rows.Scan(&li.LineNo, &li.Description, &li.QuantityM, &conductor, &insulation, &voltage, &cores, &size, &armoured); err != nil {
			return fmt.Errorf("scanning line item: %w", err)
		}
		li.Required = specFromColumns(conductor.String, insulation.String, voltage.Float64, cores.Float64, size.Float64, armoured)
		r.LineItems = append(r.LineItems, li)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating line items: %w", err)
	}

	testRows, err := p.db.QueryContext(ctx,
		`SELECT test_code FROM rfp_tests WHERE rfp_id = $1 ORDER BY test_code`, id,
	)
	if err != nil {
		return fmt.Errorf("querying tests: %w", err)
	}
	defer testRows.Close()

	for testRows.Next() {
		var code string
		if err := testRows.Scan(&code); err != nil {
			return fmt.Errorf("scanning test: %w", err)
		}
		r.Tests = append(r.Tests, code)
	}
	return testRows.Err()
}

// specFromColumns rebuilds an attribute bag from the typed columns, keeping
// only stated attributes so absent values never read as requirements.
func specFromColumns(conductor, insulation string, voltage, cores, size float64, armoured bool) specs.Spec {
	spec := specs.Spec{specs.AttrArmoured: specs.Bool(armoured)}
	if conductor != "" {
		spec[specs.AttrConductor] = specs.Text(conductor)
	}
	if insulation != "" {
		spec[specs.AttrInsulation] = specs.Text(insulation)
	}
	if voltage > 0 {
		spec[specs.AttrVoltageKV] = specs.Number(voltage)
	}
	if cores > 0 {
		spec[specs.AttrCores] = specs.Number(cores)
	}
	if size > 0 {
		spec[specs.AttrSizeSqmm] = specs.Number(size)
	}
	return spec
}

// compile-time contract checks.
var (
	_ rfp.Store         = (*Postgres)(nil)
	_ catalog.Inventory = (*Postgres)(nil)
	_ catalog.PriceBook = (*Postgres)(nil)
)
