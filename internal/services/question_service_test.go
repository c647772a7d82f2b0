package services

import (
	"testing"
)

func TestResolveAnswerKey(t *testing.T) {
	options := []string{"4.9 m/s^2", "9.8 m/s^2", "19.6 m/s^2", "39.2 m/s^2"}

	tests := []struct {
		name    string
		key     string
		want    int
		wantErr bool
	}{
		{"bare index", "1", 1, false},
		{"index zero", "0", 0, false},
		{"letter", "C", 2, false},
		{"lowercase letter", "d", 3, false},
		{"option label", "Option B", 1, false},
		{"uppercase label", "OPTION A", 0, false},
		{"literal option text", "9.8 m/s^2", 1, false},
		{"literal with spacing", "  19.6 m/s^2 ", 2, false},
		{"index out of range", "4", 0, true},
		{"negative index", "-1", 0, true},
		{"letter out of range", "E", 0, true},
		{"unmatched text", "42 m/s^2", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAnswerKey(tt.key, options)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ResolveAnswerKey(%q) = %d, want error", tt.key, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveAnswerKey(%q) failed: %v", tt.key, err)
			}
			if got != tt.want {
				t.Errorf("ResolveAnswerKey(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestNextStudentID(t *testing.T) {
	tests := []struct {
		last string
		want string
	}{
		{"", "VIIT000001"},
		{"VIIT000001", "VIIT000002"},
		{"VIIT000099", "VIIT000100"},
		{"VIIT999999", "VIIT1000000"},
		{"garbage", "VIIT000001"},
	}

	for _, tt := range tests {
		if got := NextStudentID(tt.last); got != tt.want {
			t.Errorf("NextStudentID(%q) = %q, want %q", tt.last, got, tt.want)
		}
	}
}
