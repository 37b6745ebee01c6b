package storage

import (
	"time"

	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

// demoRFPs returns the two sample tenders shipped with the seed. The second
// one is usually filtered by the 3-month horizon, which makes it useful for
// exercising the due-within query.
func demoRFPs(today time.Time) []*rfp.RFP {
	return []*rfp.RFP{
		{
			ExternalID: "RFP-001",
			Title:      "Supply of LV Power & Control Cables for Metro Depot",
			SourceURL:  "https://example-lstk1.com/tenders",
			DueDate:    today.AddDate(0, 0, 45),
			LineItems: []rfp.LineItem{
				{
					LineNo:      1,
					Description: "4C 16sqmm Cu XLPE 1.1kV armoured feeder cable",
					QuantityM:   5000,
					Required: specs.Spec{
						specs.AttrConductor:  specs.Text("copper"),
						specs.AttrInsulation: specs.Text("XLPE"),
						specs.AttrVoltageKV:  specs.Number(1.1),
						specs.AttrCores:      specs.Number(4),
						specs.AttrSizeSqmm:   specs.Number(16),
						specs.AttrArmoured:   specs.Bool(true),
					},
				},
				{
					LineNo:      2,
					Description: "2C 4sqmm Cu PVC 1.1kV unarmoured control cable",
					QuantityM:   3000,
					Required: specs.Spec{
						specs.AttrConductor:  specs.Text("copper"),
						specs.AttrInsulation: specs.Text("PVC"),
						specs.AttrVoltageKV:  specs.Number(1.1),
						specs.AttrCores:      specs.Number(2),
						specs.AttrSizeSqmm:   specs.Number(4),
						specs.AttrArmoured:   specs.Bool(false),
					},
				},
			},
			Tests: []string{"routine_electrical_tests", "insulation_resistance_test"},
		},
		{
			ExternalID: "RFP-002",
			Title:      "Supply of Aluminium Power Cables for Industrial Plant",
			SourceURL:  "https://example-lstk2.com/rfps",
			DueDate:    today.AddDate(0, 0, 120),
			LineItems: []rfp.LineItem{
				{
					LineNo:      1,
					Description: "3.5C 95sqmm Al XLPE 1.1kV armoured main incomer cable",
					QuantityM:   2000,
					Required: specs.Spec{
						specs.AttrConductor:  specs.Text("aluminium"),
						specs.AttrInsulation: specs.Text("XLPE"),
						specs.AttrVoltageKV:  specs.Number(1.1),
						specs.AttrCores:      specs.Number(3.5),
						specs.AttrSizeSqmm:   specs.Number(95),
						specs.AttrArmoured:   specs.Bool(true),
					},
				},
			},
			Tests: []string{"routine_electrical_tests", "type_test", "fire_resistance_test"},
		},
	}
}
