// Package utils provides small shared helpers: tolerant JSON/HJSON parsing
// for interchange files produced by external document decoders, and markdown
// rendering for human-review reports.
package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common defects in JSON emitted by external tooling:
// single quotes, unquoted keys, trailing commas, unclosed brackets,
// comments, and stray markdown fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("json repair failed: %w", err)
	}
	return repaired, nil
}

// ParseHJSONToStruct parses HJSON (comments, unquoted keys, optional
// commas) directly into a Go struct. Used for hand-maintained alias and
// keyword configuration files.
func ParseHJSONToStruct(data string, out interface{}) error {
	if err := hjson.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("hjson unmarshal: %w", err)
	}
	return nil
}

// LenientUnmarshal parses JSON into out, repairing the input first when a
// strict parse fails. Decoder output occasionally arrives with trailing
// commas or truncated arrays; a repaired parse is preferable to refusing
// the document outright.
func LenientUnmarshal(data []byte, out interface{}) error {
	strictErr := json.Unmarshal(data, out)
	if strictErr == nil {
		return nil
	}

	repaired, err := RepairJSON(string(data))
	if err != nil {
		return fmt.Errorf("invalid json (%v) and unrepairable: %w", strictErr, err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("json still invalid after repair: %w", err)
	}
	return nil
}
