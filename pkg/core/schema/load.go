package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"pension_extraction/pkg/core/utils"
)

// LoadFile reads a schema from a YAML or HJSON file, keyed on extension.
// HJSON is accepted so alias lists can carry maintainer comments. The loaded
// schema is validated before being returned; callers pass it into the
// pipeline explicitly; nothing here touches global state.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", path, err)
	}

	var s Schema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Schema{}, fmt.Errorf("schema: parse %s: %w", path, err)
		}
	case ".hjson":
		if err := utils.ParseHJSONToStruct(string(data), &s); err != nil {
			return Schema{}, fmt.Errorf("schema: parse %s: %w", path, err)
		}
	default:
		return Schema{}, fmt.Errorf("schema: unsupported config format %q", filepath.Ext(path))
	}

	applyDefaults(&s)
	if err := s.Validate(); err != nil {
		return Schema{}, err
	}
	return s, nil
}

// applyDefaults fills tuning knobs a config file may omit. Alias and keyword
// lists are never defaulted piecemeal: a file either defines them or the
// caller uses Default() outright.
func applyDefaults(s *Schema) {
	d := Default()
	if s.PercentTolerance == 0 {
		s.PercentTolerance = d.PercentTolerance
	}
	if s.PriorYearBandPct == 0 {
		s.PriorYearBandPct = d.PriorYearBandPct
	}
	if s.MaxRegionLines == 0 {
		s.MaxRegionLines = d.MaxRegionLines
	}
	if s.NumericContextLines == 0 {
		s.NumericContextLines = d.NumericContextLines
	}
	if s.CurrencyUnit == "" {
		s.CurrencyUnit = d.CurrencyUnit
	}
	if s.TotalAssetsMin == 0 && s.TotalAssetsMax == 0 {
		s.TotalAssetsMin, s.TotalAssetsMax = d.TotalAssetsMin, d.TotalAssetsMax
	}
}
