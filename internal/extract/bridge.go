// Package extract turns raw tender text into a structured RFP record via the
// generative text service. The contract is fallback-safe: every failure mode
// collapses to a skip reason, never an error, so one unparseable listing can
// never abort an ingestion batch.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/abhishekrajdhar/rfp-responder/internal/ai"
	"github.com/abhishekrajdhar/rfp-responder/internal/rfp"
	"github.com/abhishekrajdhar/rfp-responder/internal/specs"
	"github.com/abhishekrajdhar/rfp-responder/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

// defaultContextWindow bounds how much document text travels in the prompt.
const defaultContextWindow = 8000

const defaultMaxLogLength = 200

// SkipReason explains why a listing yielded no structured data. Empty means
// the extraction parsed.
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipNoGenerator    SkipReason = "generative service not configured"
	SkipGenerateFailed SkipReason = "generative service call failed"
	SkipMalformedJSON  SkipReason = "response is not valid json"
	SkipInvalidDueDate SkipReason = "due date missing or unparseable"
	SkipNoLineItems    SkipReason = "no line items extracted"
)

// LineItem is one extracted supply position.
type LineItem struct {
	LineNo      int
	Description string
	QuantityM   float64
	Conductor   string
	Insulation  string
	VoltageKV   float64
	Cores       float64
	SizeSqmm    float64
	Armoured    bool
}

// RFPData is the parsed extraction result.
type RFPData struct {
	DueDate   time.Time
	LineItems []LineItem
	Tests     []string
}

// Bridge drives the extraction prompt and parses the reply.
type Bridge struct {
	generator     ai.Generator
	contextWindow int
	maxLogLen     int
	logger        *zap.Logger
}

// New creates a Bridge. A nil generator is valid and makes every extraction
// skip with SkipNoGenerator.
func New(generator ai.Generator, contextWindow int, logger *zap.Logger) *Bridge {
	if contextWindow <= 0 {
		contextWindow = defaultContextWindow
	}
	return &Bridge{
		generator:     generator,
		contextWindow: contextWindow,
		maxLogLen:     defaultMaxLogLength,
		logger:        logger,
	}
}

// Extract sends the listing title and raw document text to the generative
// service and parses the reply. A nil RFPData always comes with a non-empty
// skip reason.
func (b *Bridge) Extract(ctx context.Context, title, rawText string) (*RFPData, SkipReason) {
	if b.generator == nil {
		return nil, SkipNoGenerator
	}

	prompt := b.buildPrompt(title, rawText)

	b.logger.Debug("extraction request",
		zap.String("title", title),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, b.maxLogLen)),
	)

	raw, err := b.generator.GenerateContent(ctx, prompt)
	if err != nil {
		b.logger.Warn("extraction call failed", zap.String("title", title), zap.Error(err))
		return nil, SkipGenerateFailed
	}

	b.logger.Debug("extraction response",
		zap.String("title", title),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, b.maxLogLen)),
	)

	data, reason := parseResponse(raw)
	if reason != SkipNone {
		b.logger.Warn("extraction rejected",
			zap.String("title", title),
			zap.String("reason", string(reason)),
		)
	}
	return data, reason
}

func (b *Bridge) buildPrompt(title, rawText string) string {
	text := rawText
	if runes := []rune(text); len(runes) > b.contextWindow {
		text = string(runes[:b.contextWindow])
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{TITLE}}", title)
	return strings.ReplaceAll(prompt, "{{DOCUMENT_TEXT}}", text)
}

// parseResponse is the parse-then-validate step: strip any code fencing,
// decode, coerce loosely typed fields, then check the record is actionable.
func parseResponse(raw string) (*RFPData, SkipReason) {
	cleaned := stripCodeFence(raw)

	var payload struct {
		DueDate   string           `json:"due_date"`
		LineItems []map[string]any `json:"line_items"`
		Tests     []any            `json:"tests"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, SkipMalformedJSON
	}

	due, ok := parseDueDate(payload.DueDate)
	if !ok {
		return nil, SkipInvalidDueDate
	}

	items := make([]LineItem, 0, len(payload.LineItems))
	for i, entry := range payload.LineItems {
		item := LineItem{
			LineNo:      int(coerceFloat(entry["line_no"])),
			Description: coerceString(entry["description"]),
			QuantityM:   coerceFloat(entry["quantity_m"]),
			Conductor:   coerceString(entry["conductor"]),
			Insulation:  coerceString(entry["insulation"]),
			VoltageKV:   coerceFloat(entry["voltage_kv"]),
			Cores:       coerceFloat(entry["cores"]),
			SizeSqmm:    coerceFloat(entry["size_sqmm"]),
			Armoured:    coerceBool(entry["armoured"]),
		}
		if item.LineNo == 0 {
			item.LineNo = i + 1
		}
		if item.QuantityM <= 0 {
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, SkipNoLineItems
	}

	tests := make([]string, 0, len(payload.Tests))
	seen := make(map[string]struct{}, len(payload.Tests))
	for _, t := range payload.Tests {
		code := strings.ToLower(coerceString(t))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		tests = append(tests, code)
	}

	return &RFPData{DueDate: due, LineItems: items, Tests: tests}, SkipNone
}

// ToRFP converts the extraction into a storable RFP record.
func (d *RFPData) ToRFP(externalID, title, sourceURL string) *rfp.RFP {
	lines := make([]rfp.LineItem, 0, len(d.LineItems))
	for _, li := range d.LineItems {
		lines = append(lines, rfp.LineItem{
			LineNo:      li.LineNo,
			Description: li.Description,
			QuantityM:   li.QuantityM,
			Required:    li.requiredSpec(),
		})
	}

	return &rfp.RFP{
		ExternalID: externalID,
		Title:      title,
		SourceURL:  sourceURL,
		DueDate:    d.DueDate,
		LineItems:  lines,
		Tests:      d.Tests,
	}
}

// requiredSpec keeps only attributes the document actually stated; a zero
// numeric or empty string would otherwise read as a requirement that nothing
// can satisfy.
func (li LineItem) requiredSpec() specs.Spec {
	spec := specs.Spec{specs.AttrArmoured: specs.Bool(li.Armoured)}
	if li.Conductor != "" {
		spec[specs.AttrConductor] = specs.Text(li.Conductor)
	}
	if li.Insulation != "" {
		spec[specs.AttrInsulation] = specs.Text(li.Insulation)
	}
	if li.VoltageKV > 0 {
		spec[specs.AttrVoltageKV] = specs.Number(li.VoltageKV)
	}
	if li.Cores > 0 {
		spec[specs.AttrCores] = specs.Number(li.Cores)
	}
	if li.SizeSqmm > 0 {
		spec[specs.AttrSizeSqmm] = specs.Number(li.SizeSqmm)
	}
	return spec
}

func parseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// stripCodeFence removes surrounding markdown fences from a model reply that
// wrapped its JSON conversationally.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0
		}
		var f float64
		if _, err := fmt.Sscanf(trimmed, "%g", &f); err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
