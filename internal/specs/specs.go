// Package specs models cable specification attributes and scores how well a
// candidate product specification satisfies a required one.
package specs

import (
	"sort"
	"strconv"
)

// Known attribute names. The attribute set stays open: anything else a
// tender document mentions travels in the same bag under its own key.
const (
	AttrConductor   = "conductor"
	AttrInsulation  = "insulation"
	AttrVoltageKV   = "voltage_kv"
	AttrCores       = "cores"
	AttrSizeSqmm    = "size_sqmm"
	AttrArmoured    = "armoured"
	AttrApplication = "application"
)

// Value is a single attribute value: either numeric (voltage, cross-section)
// or textual (conductor material, boolean flags).
type Value struct {
	num     float64
	text    string
	numeric bool
}

// Number builds a numeric attribute value.
func Number(f float64) Value { return Value{num: f, numeric: true} }

// Text builds a categorical attribute value.
func Text(s string) Value { return Value{text: s} }

// Bool builds a flag attribute value. Flags compare by their textual form.
func Bool(b bool) Value { return Value{text: strconv.FormatBool(b)} }

// IsNumeric reports whether the value is numeric.
func (v Value) IsNumeric() bool { return v.numeric }

// Float returns the numeric value, 0 for textual values.
func (v Value) Float() float64 { return v.num }

// String returns the textual form of the value.
func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Spec is an attribute bag, one entry per attribute name.
type Spec map[string]Value

// Keys returns the attribute names in deterministic order.
func (s Spec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Strings renders the spec as a plain string map, used when a match entry
// snapshots the candidate product's attributes.
func (s Spec) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v.String()
	}
	return out
}
