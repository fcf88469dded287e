package utils

import (
	"testing"
)

func TestLenientUnmarshal(t *testing.T) {
	type payload struct {
		Year  int     `json:"year"`
		Total float64 `json:"total"`
	}

	tests := []struct {
		name    string
		input   string
		want    payload
		wantErr bool
	}{
		{"Strict JSON", `{"year": 2024, "total": 13432}`, payload{2024, 13432}, false},
		{"Trailing comma", `{"year": 2024, "total": 13432,}`, payload{2024, 13432}, false},
		{"Single quotes", `{'year': 2023, 'total': 13083}`, payload{2023, 13083}, false},
		{"Unquoted keys", `{year: 2022, total: 13149}`, payload{2022, 13149}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got payload
			err := LenientUnmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("LenientUnmarshal(%q) = %+v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LenientUnmarshal(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("LenientUnmarshal(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseHJSONToStruct(t *testing.T) {
	type cfg struct {
		CurrencyUnit     string  `json:"currency_unit"`
		PercentTolerance float64 `json:"percent_tolerance"`
	}

	input := `{
	  // comments are allowed
	  currency_unit: CHF millions
	  percent_tolerance: 1.5
	}`

	var got cfg
	if err := ParseHJSONToStruct(input, &got); err != nil {
		t.Fatalf("ParseHJSONToStruct error = %v", err)
	}
	if got.CurrencyUnit != "CHF millions" || got.PercentTolerance != 1.5 {
		t.Errorf("ParseHJSONToStruct = %+v, want currency and tolerance populated", got)
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("# Extraction Review\n\n| a | b |\n|---|---|\n| 1 | 2 |\n") {
		t.Error("well-formed report rejected")
	}
	if !ValidateMarkdown("") {
		t.Error("empty input should parse to an empty document, not fail")
	}
}
