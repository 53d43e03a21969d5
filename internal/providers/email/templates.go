package email

import (
	"fmt"
	"strings"

	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
)

func InternalSubject(order intakedomain.OrderSummary) string {
	return fmt.Sprintf("[Crown] New %s order - %s", strings.ToUpper(string(order.OrderType)), order.OrderID)
}

func InternalBody(order intakedomain.OrderSummary, items []intakedomain.ItemRow, uploads []string) string {
	lines := []string{
		"A new order was received.",
		"",
		"Order ID: " + order.OrderID,
		"Type: " + string(order.OrderType),
		"",
		"Customer",
		"  Name: " + order.Name,
		"  Email: " + order.Email,
		"  Phone: " + order.Phone,
		"  Company: " + order.Company,
		"",
		"Items",
	}
	if len(items) == 0 {
		lines = append(lines, "  (none)")
	}
	for i, row := range items {
		lines = append(lines, fmt.Sprintf("  %d. Qty=%s  Desc=%s  Mat=%s  Notes=%s", i+1, row.Qty, row.Description, row.Material, row.Notes))
	}
	lines = append(lines, "", "Uploads")
	if len(uploads) == 0 {
		lines = append(lines, "  (none)")
	}
	for _, path := range uploads {
		lines = append(lines, "  "+path)
	}
	return strings.Join(lines, "\n")
}

func CustomerSubject(order intakedomain.OrderSummary) string {
	return fmt.Sprintf("Crown Graphics - We received your request (%s)", order.OrderID)
}

func CustomerBody(order intakedomain.OrderSummary) string {
	return fmt.Sprintf("Hi %s,\n\n"+
		"We received your request and will review it shortly.\n"+
		"If we need any clarification, we’ll reach out.\n\n"+
		"Order ID: %s\n"+
		"Type: %s\n\n"+
		"Thanks,\n"+
		"Crown Graphics\n", order.Name, order.OrderID, order.OrderType)
}
