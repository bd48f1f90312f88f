package common

import "testing"

func TestSanitizeAccession(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean accession", in: "SRR123456", want: "SRR123456"},
		{name: "surrounding whitespace", in: "  SRR123456\t", want: "SRR123456"},
		{name: "trailing comma", in: "SRR123456,", want: "SRR123456"},
		{name: "quoted", in: "\"ERP000001\"", want: "ERP000001"},
		{name: "lowercase prefix", in: "srr123456", want: "SRR123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeAccession(tt.in); got != tt.want {
				t.Errorf("SanitizeAccession(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeAndValidateAccessions(t *testing.T) {
	valid, invalid := SanitizeAndValidateAccessions([]string{
		"SRR123456", "ERP000001,", "DRX42", "not-an-accession", "",
	})
	if len(valid) != 3 {
		t.Errorf("valid = %v, want 3 entries", valid)
	}
	if len(invalid) != 2 {
		t.Errorf("invalid = %v, want 2 entries", invalid)
	}
}
