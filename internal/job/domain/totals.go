package domain

import "math"

// BuildLineItems converts submitted rows into line items. A row is kept when
// any of qty, description, material or labor is non-empty and non-zero.
func BuildLineItems(rows []LineItemInput) []LineItem {
	items := make([]LineItem, 0, len(rows))
	for _, row := range rows {
		qty := ParseInt(row.Qty)
		desc := OptionalString(row.Description)
		mat := ParseMoney(row.MaterialPrice)
		lab := ParseMoney(row.LaborPrice)
		if isZeroInt(qty) && desc == nil && isZeroFloat(mat) && isZeroFloat(lab) {
			continue
		}
		items = append(items, LineItem{
			Position:      len(items),
			Qty:           qty,
			Description:   desc,
			MaterialPrice: mat,
			LaborPrice:    lab,
			LineTotal:     value(mat) + value(lab),
		})
	}
	return items
}

// DeriveTotals fills job totals that are still unset from its line items.
// Totals already present are never overwritten.
func DeriveTotals(job Job, items []LineItem) Job {
	var materials, labor float64
	for _, item := range items {
		materials += value(item.MaterialPrice)
		labor += value(item.LaborPrice)
	}

	if materials > 0 && job.MaterialsTotal == nil {
		job.MaterialsTotal = ptr(materials)
	}
	if labor > 0 && job.LaborTotal == nil {
		job.LaborTotal = ptr(labor)
	}

	preTax := materials + labor + value(job.ShippingHandling) + value(job.FieldCharge)
	if job.TaxRate != nil && job.SalesTax == nil {
		job.SalesTax = ptr(round2(preTax * *job.TaxRate / 100))
	}
	if preTax > 0 && job.GrandTotal == nil {
		job.GrandTotal = ptr(round2(preTax + value(job.SalesTax)))
	}
	return job
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func isZeroFloat(v *float64) bool { return v == nil || *v == 0 }

func isZeroInt(v *int) bool { return v == nil || *v == 0 }

func ptr(v float64) *float64 { return &v }

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
