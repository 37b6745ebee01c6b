package storage

import (
	"context"
	"fmt"
	"time"
)

// Seed loads the demo catalog, price tables and two sample tender records.
// Every insert is conflict-tolerant, so seeding an already-seeded database
// is a no-op.
func (p *Postgres) Seed(ctx context.Context) error {
	type productRow struct {
		sku, name, category, conductor, insulation, application string
		voltage, cores, size                                    float64
		armoured                                                bool
	}

	products := []productRow{
		{"AP-CABLE-001", "AP Copper XLPE 1.1kV 4C 16sqmm", "Power Cable", "copper", "XLPE", "feeder", 1.1, 4, 16, true},
		{"AP-CABLE-002", "AP Copper XLPE 1.1kV 4C 25sqmm", "Power Cable", "copper", "XLPE", "feeder", 1.1, 4, 25, true},
		{"AP-CABLE-003", "AP Aluminium XLPE 1.1kV 3.5C 95sqmm", "Power Cable", "aluminium", "XLPE", "main_incomer", 1.1, 3.5, 95, true},
		{"AP-CABLE-004", "AP Copper PVC 1.1kV 2C 4sqmm", "Control Cable", "copper", "PVC", "control", 1.1, 2, 4, false},
	}

	for _, prod := range products {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO products (sku, name, category, conductor, insulation, voltage_kv, cores, size_sqmm, application, armoured)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (sku) DO NOTHING
		`, prod.sku, prod.name, prod.category, prod.conductor, prod.insulation, prod.voltage, prod.cores, prod.size, prod.application, prod.armoured)
		if err != nil {
			return fmt.Errorf("seeding product %s: %w", prod.sku, err)
		}
	}

	skuPrices := map[string]float64{
		"AP-CABLE-001": 150.0,
		"AP-CABLE-002": 190.0,
		"AP-CABLE-003": 320.0,
		"AP-CABLE-004": 75.0,
	}
	for sku, price := range skuPrices {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO sku_prices (sku, unit_price) VALUES ($1, $2)
			ON CONFLICT (sku) DO NOTHING
		`, sku, price)
		if err != nil {
			return fmt.Errorf("seeding sku price %s: %w", sku, err)
		}
	}

	testPrices := map[string]float64{
		"routine_electrical_tests":   5000.0,
		"type_test":                  25000.0,
		"fire_resistance_test":       18000.0,
		"insulation_resistance_test": 6000.0,
	}
	for code, price := range testPrices {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO test_prices (test_code, price) VALUES ($1, $2)
			ON CONFLICT (test_code) DO NOTHING
		`, code, price)
		if err != nil {
			return fmt.Errorf("seeding test price %s: %w", code, err)
		}
	}

	return p.seedDemoRFPs(ctx)
}

func (p *Postgres) seedDemoRFPs(ctx context.Context) error {
	today := time.Now()

	for _, r := range demoRFPs(today) {
		if _, err := p.Save(ctx, r); err != nil {
			return fmt.Errorf("seeding rfp %s: %w", r.ExternalID, err)
		}
	}
	return nil
}
