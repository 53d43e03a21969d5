package pricing

import (
	"errors"
	"fmt"
)

// Modifier groups. Each group holds percentage adjustments keyed by option value.
const (
	GroupPaper      = "paper"
	GroupColor      = "color"
	GroupSides      = "sides"
	GroupTurnaround = "turnaround"
)

// Rate is the price of one (product, size) pair. Quantities are charged in
// blocks of Step units; a partial block is charged at half the increment.
type Rate struct {
	Base      float64 `mapstructure:"base" json:"base" yaml:"base"`
	Step      int     `mapstructure:"step" json:"step" yaml:"step"`
	Increment float64 `mapstructure:"increment" json:"increment" yaml:"increment"`
}

// Table is the full pricing configuration: product -> size -> rate, and
// modifier group -> option -> adjustment (0.15 means +15%).
type Table struct {
	Products  map[string]map[string]Rate     `mapstructure:"products" json:"products" yaml:"products"`
	Modifiers map[string]map[string]float64 `mapstructure:"modifiers" json:"modifiers" yaml:"modifiers"`
}

func DefaultTable() Table {
	return Table{
		Products: map[string]map[string]Rate{
			"business_cards": {
				"3.5x2": {Base: 10.00, Step: 100, Increment: 8.00},
			},
			"flyers": {
				"8.5x11": {Base: 15.00, Step: 100, Increment: 12.00},
				"5x7":    {Base: 12.00, Step: 100, Increment: 9.00},
			},
			"posters": {
				"18x24": {Base: 20.00, Step: 10, Increment: 18.00},
				"24x36": {Base: 28.00, Step: 10, Increment: 24.00},
			},
		},
		Modifiers: map[string]map[string]float64{
			GroupPaper:      {"standard": 0.0, "premium": 0.15, "ultra": 0.30},
			GroupColor:      {"full_color": 0.0, "bw": -0.10},
			GroupSides:      {"single": 0.0, "double": 0.12},
			GroupTurnaround: {"standard": 0.0, "rush": 0.25},
		},
	}
}

// Validate rejects tables the calculator cannot price with.
func Validate(t Table) error {
	if len(t.Products) == 0 {
		return errors.New("pricing.products cannot be empty")
	}
	for product, sizes := range t.Products {
		for size, rate := range sizes {
			if rate.Base < 0 || rate.Increment < 0 {
				return fmt.Errorf("pricing.products.%s.%s: negative amount", product, size)
			}
			if rate.Step < 0 {
				return fmt.Errorf("pricing.products.%s.%s: negative step", product, size)
			}
		}
	}
	for _, group := range []string{GroupPaper, GroupColor, GroupSides, GroupTurnaround} {
		options, ok := t.Modifiers[group]
		if !ok || len(options) == 0 {
			return fmt.Errorf("pricing.modifiers.%s cannot be empty", group)
		}
		if _, ok := options[defaultOptions()[group]]; !ok {
			return fmt.Errorf("pricing.modifiers.%s must define %q", group, defaultOptions()[group])
		}
	}
	return nil
}
