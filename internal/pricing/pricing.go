package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownOption   = errors.New("unknown_pricing_option")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)

// Options selects one value per modifier group. Empty fields fall back to
// the group default.
type Options struct {
	Paper      string `json:"paper" form:"paper"`
	Color      string `json:"color" form:"color"`
	Sides      string `json:"sides" form:"sides"`
	Turnaround string `json:"turnaround" form:"turnaround"`
}

func defaultOptions() map[string]string {
	return map[string]string{
		GroupPaper:      "standard",
		GroupColor:      "full_color",
		GroupSides:      "single",
		GroupTurnaround: "standard",
	}
}

func (o Options) withDefaults() Options {
	defaults := defaultOptions()
	if strings.TrimSpace(o.Paper) == "" {
		o.Paper = defaults[GroupPaper]
	}
	if strings.TrimSpace(o.Color) == "" {
		o.Color = defaults[GroupColor]
	}
	if strings.TrimSpace(o.Sides) == "" {
		o.Sides = defaults[GroupSides]
	}
	if strings.TrimSpace(o.Turnaround) == "" {
		o.Turnaround = defaults[GroupTurnaround]
	}
	return o
}

// Calculate prices quantity units of (product, size). Unknown product or
// size pairs price at 0; unknown option values fail with ErrUnknownOption.
func Calculate(t Table, product, size string, quantity int, opts Options) (float64, error) {
	if quantity < 0 {
		return 0, ErrInvalidQuantity
	}

	rate, ok := t.Products[product][size]
	if !ok {
		return 0, nil
	}

	opts = opts.withDefaults()
	mult := 1.0
	for _, sel := range []struct{ group, value string }{
		{GroupPaper, opts.Paper},
		{GroupColor, opts.Color},
		{GroupSides, opts.Sides},
		{GroupTurnaround, opts.Turnaround},
	} {
		adj, ok := t.Modifiers[sel.group][strings.TrimSpace(sel.value)]
		if !ok {
			return 0, fmt.Errorf("%w: %s=%q", ErrUnknownOption, sel.group, sel.value)
		}
		mult *= 1.0 + adj
	}

	return round2(stepped(rate, quantity) * mult), nil
}

func stepped(rate Rate, quantity int) float64 {
	price := rate.Base
	if rate.Step <= 0 {
		return price
	}
	price += float64(quantity/rate.Step) * rate.Increment
	if quantity%rate.Step != 0 {
		price += rate.Increment * 0.5
	}
	return price
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
