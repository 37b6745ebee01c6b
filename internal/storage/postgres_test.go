package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

func newTestStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewWithDB(db, zap.NewNop()), mock
}

func testRecord() *rfp.RFP {
	return &rfp.RFP{
		ExternalID: "RFP-abc123",
		Title:      "Supply of LT cables",
		SourceURL:  "https://portal.example.com",
		DueDate:    time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		LineItems: []rfp.LineItem{
			{
				LineNo:      1,
				Description: "4C x 16 sqmm Cu XLPE armoured",
				QuantityM:   5000,
				Required: specs.Spec{
					specs.AttrConductor:  specs.Text("copper"),
					specs.AttrInsulation: specs.Text("xlpe"),
					specs.AttrVoltageKV:  specs.Number(1.1),
					specs.AttrCores:      specs.Number(4),
					specs.AttrSizeSqmm:   specs.Number(16),
					specs.AttrArmoured:   specs.Bool(true),
				},
			},
		},
		Tests: []string{"routine_electrical_tests"},
	}
}

func TestSaveInserts(t *testing.T) {
	store, mock := newTestStore(t)
	record := testRecord()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rfps")).
		WithArgs(record.ExternalID, record.Title, record.SourceURL, record.DueDate).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rfp_line_items")).
		WithArgs(int64(7), 1, record.LineItems[0].Description, 5000.0,
			"copper", "xlpe", 1.1, 4.0, 16.0, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rfp_tests")).
		WithArgs(int64(7), "routine_electrical_tests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	inserted, err := store.Save(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveKnownExternalID(t *testing.T) {
	store, mock := newTestStore(t)
	record := testRecord()

	// ON CONFLICT DO NOTHING returns no row for a known external id.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO rfps")).
		WithArgs(record.ExternalID, record.Title, record.SourceURL, record.DueDate).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	inserted, err := store.Save(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByExternalIDUnknown(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rfps WHERE external_id")).
		WithArgs("RFP-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "title", "source_url", "due_date"}))

	found, err := store.FindByExternalID(context.Background(), "RFP-missing")
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByExternalID(t *testing.T) {
	store, mock := newTestStore(t)
	due := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rfps WHERE external_id")).
		WithArgs("RFP-abc123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "title", "source_url", "due_date"}).
			AddRow(int64(7), "RFP-abc123", "Supply of LT cables", "https://portal.example.com", due))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfp_line_items WHERE rfp_id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"line_no", "description", "quantity_m", "conductor", "insulation", "voltage_kv", "cores", "size_sqmm", "armoured",
		}).AddRow(1, "4C x 16 sqmm Cu XLPE", 5000.0, "copper", "xlpe", 1.1, 4.0, 16.0, true))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfp_tests WHERE rfp_id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"test_code"}).AddRow("routine_electrical_tests"))

	found, err := store.FindByExternalID(context.Background(), "RFP-abc123")
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, "Supply of LT cables", found.Title)
	require.Len(t, found.LineItems, 1)

	li := found.LineItems[0]
	assert.Equal(t, 5000.0, li.QuantityM)
	assert.Equal(t, "copper", li.Required[specs.AttrConductor].String())
	assert.Equal(t, 4.0, li.Required[specs.AttrCores].Float())
	assert.Equal(t, "true", li.Required[specs.AttrArmoured].String())

	assert.Equal(t, []string{"routine_electrical_tests"}, found.Tests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDueWithin(t *testing.T) {
	store, mock := newTestStore(t)
	due := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE source_url = ANY($1) AND due_date <= $2")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "title", "source_url", "due_date"}).
			AddRow(int64(7), "RFP-abc123", "Supply of LT cables", "https://portal.example.com", due))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfp_line_items WHERE rfp_id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"line_no", "description", "quantity_m", "conductor", "insulation", "voltage_kv", "cores", "size_sqmm", "armoured",
		}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rfp_tests WHERE rfp_id")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"test_code"}))

	result, err := store.FindDueWithin(context.Background(), []string{"https://portal.example.com"}, 3)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "RFP-abc123", result[0].ExternalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProducts(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{
			"sku", "name", "category", "conductor", "insulation", "voltage_kv", "cores", "size_sqmm", "application", "armoured",
		}).
			AddRow("AP-CABLE-001", "4C x 16 sqmm Cu XLPE Armoured", "LT Power Cable", "copper", "xlpe", 1.1, 4.0, 16.0, "power distribution", true).
			AddRow("AP-CABLE-004", "1C x 300 sqmm Al PVC", "LT Power Cable", "aluminium", "pvc", 1.1, 1.0, 300.0, nil, false))

	products, err := store.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	assert.Equal(t, "AP-CABLE-001", first.SKU)
	assert.Equal(t, "copper", first.Specs[specs.AttrConductor].String())
	assert.Equal(t, "power distribution", first.Specs[specs.AttrApplication].String())

	second := products[1]
	_, hasApplication := second.Specs[specs.AttrApplication]
	assert.False(t, hasApplication)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceForSKUUnknown(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unit_price FROM sku_prices")).
		WithArgs("UNKNOWN").
		WillReturnRows(sqlmock.NewRows([]string{"unit_price"}))

	assert.Equal(t, 0.0, store.PriceForSKU(context.Background(), "UNKNOWN"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPriceForSKU(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT unit_price FROM sku_prices")).
		WithArgs("AP-CABLE-001").
		WillReturnRows(sqlmock.NewRows([]string{"unit_price"}).AddRow(150.0))

	assert.Equal(t, 150.0, store.PriceForSKU(context.Background(), "AP-CABLE-001"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricesForTests(t *testing.T) {
	store, mock := newTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT test_code, price FROM test_prices")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"test_code", "price"}).
			AddRow("routine_electrical_tests", 5000.0))

	prices := store.PricesForTests(context.Background(), []string{"routine_electrical_tests", "unknown_test"})

	assert.Equal(t, map[string]float64{"routine_electrical_tests": 5000.0}, prices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPricesForTestsEmptyCodes(t *testing.T) {
	store, mock := newTestStore(t)

	prices := store.PricesForTests(context.Background(), nil)

	assert.Empty(t, prices)
	assert.NoError(t, mock.ExpectationsWereMet())
}
