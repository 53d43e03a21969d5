package pdf

import (
	"context"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/crowngraphics/portal/internal/clock"
	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
)

const (
	descWrap  = 42
	notesWrap = 28
)

// OrderRenderer builds the one-page order summary attached to intake emails.
type OrderRenderer struct {
	clock clock.Clock
}

func New(clk clock.Clock) *OrderRenderer {
	return &OrderRenderer{clock: clk}
}

func (r *OrderRenderer) RenderOrder(ctx context.Context, order intakedomain.OrderSummary, items []intakedomain.ItemRow) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Crown Graphics - Order Intake", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	created := order.CreatedAt
	if created.IsZero() {
		created = r.clock.Now()
	}
	m.AddRow(6,
		text.NewCol(8, "Order ID: "+order.OrderID, props.Text{Size: 10}),
		text.NewCol(4, "Type: "+strings.ToUpper(string(order.OrderType)), props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(10,
		text.NewCol(12, "Created: "+created.UTC().Format(time.RFC3339), props.Text{Size: 10}),
	)

	m.AddRow(7, text.NewCol(12, "Customer", props.Text{Size: 12, Style: fontstyle.Bold}))
	m.AddRow(24,
		col.New(12).Add(
			text.New("Name: "+order.Name, props.Text{Size: 10, Top: 0}),
			text.New("Email: "+order.Email, props.Text{Size: 10, Top: 5}),
			text.New("Phone: "+order.Phone, props.Text{Size: 10, Top: 10}),
			text.New("Company: "+order.Company, props.Text{Size: 10, Top: 15}),
		),
	)

	m.AddRow(8, text.NewCol(12, "Requested Items", props.Text{Size: 12, Style: fontstyle.Bold}))
	m.AddRow(5,
		text.NewCol(1, "Qty", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(5, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "Material", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, "Notes", props.Text{Size: 9, Style: fontstyle.Bold}),
	)
	m.AddRow(2, line.NewCol(12, props.Line{Thickness: 0.5}))

	if len(items) == 0 {
		m.AddRow(6, text.NewCol(12, "(No items provided)", props.Text{Size: 9}))
	}
	for _, item := range items {
		descLines := Wrap(item.Description, descWrap)
		notesLines := Wrap(item.Notes, notesWrap)
		height := float64(max(len(descLines), len(notesLines), 1))*4.5 + 1.5
		m.AddRow(height,
			text.NewCol(1, item.Qty, props.Text{Size: 9}),
			text.NewCol(5, strings.Join(descLines, "\n"), props.Text{Size: 9}),
			text.NewCol(3, item.Material, props.Text{Size: 9}),
			text.NewCol(3, strings.Join(notesLines, "\n"), props.Text{Size: 9}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Generated automatically by Crown Admin Portal", props.Text{
			Size:  8,
			Style: fontstyle.Italic,
			Top:   6,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// Wrap breaks text on word boundaries into lines of at most width runes.
// A single word longer than width stays on its own line.
func Wrap(s string, width int) []string {
	if len([]rune(s)) <= width {
		return []string{s}
	}
	var lines []string
	cur := ""
	for _, word := range strings.Fields(s) {
		if cur == "" {
			cur = word
			continue
		}
		if len([]rune(cur))+len([]rune(word))+1 <= width {
			cur += " " + word
			continue
		}
		lines = append(lines, cur)
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
