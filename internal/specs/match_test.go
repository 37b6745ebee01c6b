package specs

import "testing"

func TestMatchEmptySpecs(t *testing.T) {
	t.Parallel()

	candidate := Spec{AttrConductor: Text("copper")}
	if got := Match(Spec{}, candidate); got != 0 {
		t.Fatalf("expected empty required spec to score 0, got %v", got)
	}

	required := Spec{AttrConductor: Text("copper")}
	if got := Match(required, Spec{}); got != 0 {
		t.Fatalf("expected empty candidate spec to score 0, got %v", got)
	}
}

func TestMatchNumericTolerance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		candidate float64
		want      float64
	}{
		{name: "within band", candidate: 105, want: 100},
		// |90-100|/90 is just over the band, measured against the candidate.
		{name: "below band", candidate: 90, want: 0},
		{name: "outside band", candidate: 115, want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			required := Spec{AttrVoltageKV: Number(100)}
			candidate := Spec{AttrVoltageKV: Number(tc.candidate)}

			if got := Match(required, candidate); got != tc.want {
				t.Fatalf("expected %v for candidate %v, got %v", tc.want, tc.candidate, got)
			}
		})
	}
}

func TestMatchZeroCandidateNumeric(t *testing.T) {
	t.Parallel()

	required := Spec{
		AttrVoltageKV: Number(1.1),
		AttrConductor: Text("copper"),
	}
	candidate := Spec{
		AttrVoltageKV: Number(0),
		AttrConductor: Text("Copper"),
	}

	// The zero numeric never matches but still counts in the denominator.
	if got := Match(required, candidate); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestMatchTextCaseInsensitive(t *testing.T) {
	t.Parallel()

	required := Spec{
		AttrConductor:  Text("Copper"),
		AttrInsulation: Text("XLPE"),
		AttrArmoured:   Bool(true),
	}
	candidate := Spec{
		AttrConductor:  Text("copper"),
		AttrInsulation: Text("xlpe"),
		AttrArmoured:   Bool(true),
	}

	if got := Match(required, candidate); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestMatchMissingCandidateKey(t *testing.T) {
	t.Parallel()

	required := Spec{
		AttrConductor: Text("copper"),
		AttrCores:     Number(4),
		AttrSizeSqmm:  Number(16),
	}
	candidate := Spec{
		AttrConductor: Text("copper"),
		AttrCores:     Number(4),
	}

	if got := Match(required, candidate); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
}

func TestMatchMixedNumericText(t *testing.T) {
	t.Parallel()

	// A numeric required value against a textual candidate compares by string.
	required := Spec{AttrCores: Number(4)}
	candidate := Spec{AttrCores: Text("4")}

	if got := Match(required, candidate); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	if got := Round2(66.666666); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if got := Round2(40); got != 40 {
		t.Fatalf("expected 40, got %v", got)
	}
}
