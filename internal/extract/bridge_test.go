package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

const validReply = `{
  "due_date": "2025-07-15",
  "line_items": [
    {
      "line_no": 1,
      "description": "4C x 16 sqmm Cu XLPE armoured cable",
      "quantity_m": 5000,
      "conductor": "copper",
      "insulation": "xlpe",
      "voltage_kv": 1.1,
      "cores": 4,
      "size_sqmm": 16,
      "armoured": true
    }
  ],
  "tests": ["Routine_Electrical_Tests", "routine_electrical_tests", "type_test"]
}`

func TestExtractParsesReply(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: validReply}
	bridge := New(stub, 0, zap.NewNop())

	data, reason := bridge.Extract(context.Background(), "Supply of LT cables", "document text")
	if reason != SkipNone {
		t.Fatalf("unexpected skip reason: %s", reason)
	}

	want := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	if !data.DueDate.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, data.DueDate)
	}

	if len(data.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(data.LineItems))
	}

	li := data.LineItems[0]
	if li.QuantityM != 5000 || li.Conductor != "copper" || !li.Armoured {
		t.Fatalf("unexpected line item: %+v", li)
	}

	// Test codes are lowercased and deduplicated, order preserved.
	if len(data.Tests) != 2 || data.Tests[0] != "routine_electrical_tests" || data.Tests[1] != "type_test" {
		t.Fatalf("unexpected tests: %v", data.Tests)
	}

	if !strings.Contains(stub.lastPrompt, "Supply of LT cables") {
		t.Fatalf("expected the title in the prompt")
	}
	if !strings.Contains(stub.lastPrompt, "document text") {
		t.Fatalf("expected the document text in the prompt")
	}
}

func TestExtractStripsCodeFence(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "```json\n" + validReply + "\n```"}
	bridge := New(stub, 0, zap.NewNop())

	data, reason := bridge.Extract(context.Background(), "t", "text")
	if reason != SkipNone {
		t.Fatalf("unexpected skip reason: %s", reason)
	}
	if len(data.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(data.LineItems))
	}
}

func TestExtractSkipReasons(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		response string
		err      error
		want     SkipReason
	}{
		{
			name:     "malformed json",
			response: "sorry, I could not find any tender data",
			want:     SkipMalformedJSON,
		},
		{
			name: "generator failure",
			err:  errors.New("quota exceeded"),
			want: SkipGenerateFailed,
		},
		{
			name:     "invalid due date",
			response: `{"due_date": "soon", "line_items": [{"line_no": 1, "quantity_m": 100}], "tests": []}`,
			want:     SkipInvalidDueDate,
		},
		{
			name:     "no line items",
			response: `{"due_date": "2025-07-15", "line_items": [], "tests": []}`,
			want:     SkipNoLineItems,
		},
		{
			name:     "only non positive quantities",
			response: `{"due_date": "2025-07-15", "line_items": [{"line_no": 1, "quantity_m": 0}], "tests": []}`,
			want:     SkipNoLineItems,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubGenerator{response: tc.response, err: tc.err}
			bridge := New(stub, 0, zap.NewNop())

			data, reason := bridge.Extract(context.Background(), "t", "text")
			if reason != tc.want {
				t.Fatalf("expected skip reason %q, got %q", tc.want, reason)
			}
			if data != nil {
				t.Fatalf("expected nil data on skip, got %+v", data)
			}
		})
	}
}

func TestExtractNilGenerator(t *testing.T) {
	t.Parallel()

	bridge := New(nil, 0, zap.NewNop())

	data, reason := bridge.Extract(context.Background(), "t", "text")
	if reason != SkipNoGenerator {
		t.Fatalf("expected SkipNoGenerator, got %q", reason)
	}
	if data != nil {
		t.Fatalf("expected nil data, got %+v", data)
	}
}

func TestExtractTruncatesDocumentText(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: validReply}
	bridge := New(stub, 50, zap.NewNop())

	long := strings.Repeat("a", 500)
	if _, reason := bridge.Extract(context.Background(), "t", long); reason != SkipNone {
		t.Fatalf("unexpected skip reason: %s", reason)
	}

	if strings.Contains(stub.lastPrompt, strings.Repeat("a", 51)) {
		t.Fatalf("expected the document text to be truncated to the context window")
	}
}

func TestLineItemRequiredSpec(t *testing.T) {
	t.Parallel()

	li := LineItem{
		Conductor: "copper",
		VoltageKV: 1.1,
		Armoured:  false,
	}

	spec := li.requiredSpec()

	if _, ok := spec[specs.AttrInsulation]; ok {
		t.Fatalf("expected unset insulation to be omitted")
	}
	if _, ok := spec[specs.AttrCores]; ok {
		t.Fatalf("expected zero cores to be omitted")
	}
	if spec[specs.AttrArmoured].String() != "false" {
		t.Fatalf("expected armoured to always be present")
	}
	if spec[specs.AttrConductor].String() != "copper" {
		t.Fatalf("expected conductor attribute, got %v", spec)
	}
	if spec[specs.AttrVoltageKV].Float() != 1.1 {
		t.Fatalf("expected voltage attribute, got %v", spec)
	}
}

func TestToRFP(t *testing.T) {
	t.Parallel()

	data := &RFPData{
		DueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
		LineItems: []LineItem{
			{LineNo: 1, Description: "cable", QuantityM: 5000, Conductor: "copper"},
		},
		Tests: []string{"type_test"},
	}

	r := data.ToRFP("RFP-abc123", "Supply of LT cables", "https://portal.example.com")

	if r.ExternalID != "RFP-abc123" {
		t.Fatalf("unexpected external id: %s", r.ExternalID)
	}
	if len(r.LineItems) != 1 || r.LineItems[0].QuantityM != 5000 {
		t.Fatalf("unexpected line items: %+v", r.LineItems)
	}
	if len(r.Tests) != 1 || r.Tests[0] != "type_test" {
		t.Fatalf("unexpected tests: %v", r.Tests)
	}
}
