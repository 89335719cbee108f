package reading

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		systolic  int
		diastolic int
		expected  Severity
	}{
		{110, 70, SeverityOptimal},
		{119, 79, SeverityOptimal},
		{120, 70, SeverityNormal},
		{129, 79, SeverityNormal},
		{130, 70, SeverityElevated},
		{115, 80, SeverityElevated},
		{139, 89, SeverityElevated},
		{140, 70, SeverityHigh},
		{141, 70, SeverityHigh},
		{110, 90, SeverityHigh},
		{125, 95, SeverityHigh},
		{150, 95, SeverityHigh},
	}

	for _, tt := range tests {
		result := Classify(tt.systolic, tt.diastolic)
		if result != tt.expected {
			t.Errorf("Classify(%d, %d) = %s, want %s", tt.systolic, tt.diastolic, result, tt.expected)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	for s := 0; s <= 300; s += 5 {
		for d := 0; d <= 200; d += 5 {
			c := Classify(s, d)
			if c < SeverityOptimal || c > SeverityHigh {
				t.Fatalf("Classify(%d, %d) = %d, outside known bands", s, d, c)
			}
		}
	}
}

func TestSeverityLabels(t *testing.T) {
	tests := []struct {
		severity Severity
		name     string
		label    string
	}{
		{SeverityOptimal, "optimal", "Optimal Blood Pressure"},
		{SeverityNormal, "normal", "Normal Blood Pressure"},
		{SeverityElevated, "elevated", "Elevated Blood Pressure"},
		{SeverityHigh, "high", "High Blood Pressure"},
		{Severity(42), "unknown", ""},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.severity.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
	}
}
