package models

import "testing"

func TestParseSubject(t *testing.T) {
	tests := []struct {
		raw     string
		want    Subject
		wantErr bool
	}{
		{"PHYSICS", SubjectPhysics, false},
		{"physics", SubjectPhysics, false},
		{" Chemistry ", SubjectChemistry, false},
		{"MATHEMATICS", SubjectMathematics, false},
		{"MATHS", SubjectMathematics, false},
		{"maths", SubjectMathematics, false},
		{"Math", SubjectMathematics, false},
		{"BIOLOGY", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSubject(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSubject(%q) = %q, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSubject(%q) failed: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSubject(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, raw := range []string{"EASY", "easy", " Medium ", "HARD"} {
		if _, err := ParseDifficulty(raw); err != nil {
			t.Errorf("ParseDifficulty(%q) failed: %v", raw, err)
		}
	}
	if _, err := ParseDifficulty("IMPOSSIBLE"); err == nil {
		t.Error("ParseDifficulty accepted an unknown level")
	}
}
