package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestPODisplay(t *testing.T) {
	assert.Equal(t, "030926-07", Job{PODateKey: "030926", POSeq: 7}.PODisplay())
	assert.Equal(t, "030926-42", Job{PODateKey: "030926", POSeq: 42}.PODisplay())
	assert.Empty(t, Job{PODateKey: "030926"}.PODisplay())
	assert.Empty(t, Job{POSeq: 3}.PODisplay())
}

func TestDisplayName(t *testing.T) {
	job := Job{
		JobTitle:     "Truck wrap",
		ReceivedDate: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		PODateKey:    "030926",
		POSeq:        2,
	}
	assert.Equal(t, "Truck wrap • 03-09-2026 • 030926-02", job.DisplayName())
	assert.Equal(t, "Truck wrap", Job{JobTitle: "Truck wrap"}.DisplayName())
}

func TestStages(t *testing.T) {
	stage, err := ParseStage(" Install / Pickup ")
	require.NoError(t, err)
	assert.Equal(t, StageInstallPickup, stage)

	_, err = ParseStage("Shipped")
	assert.ErrorIs(t, err, ErrInvalidStage)

	assert.Equal(t, 0, Progress(StageReceived))
	assert.Equal(t, 40, Progress(StageProof))
	assert.Equal(t, 100, Progress(StageCompleted))
	assert.Equal(t, 0, Progress("Archived"))
	assert.True(t, StageCompleted.IsTerminal())
	assert.False(t, StageProduction.IsTerminal())
}

func TestParseHelpers(t *testing.T) {
	d, err := ParseDate("03-09-2026")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("03/09/2026")
	require.NoError(t, err)
	assert.Equal(t, 9, d.Day())

	d, err = ParseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("2026-03-09")
	assert.ErrorIs(t, err, ErrInvalidDate)

	assert.Equal(t, 1200.5, *ParseMoney("$1,200.50"))
	assert.Nil(t, ParseMoney("n/a"))
	assert.Nil(t, ParseMoney(""))
	assert.Equal(t, 3, *ParseInt(" 3 "))
	assert.Nil(t, ParseInt("three"))
}

func TestFieldsApply_RequiresNameAndTitle(t *testing.T) {
	var job Job
	assert.ErrorIs(t, Fields{JobTitle: "Sign"}.Apply(&job), ErrInvalidCustomerName)
	assert.ErrorIs(t, Fields{CustomerName: "Ann"}.Apply(&job), ErrInvalidTitle)
	assert.ErrorIs(t, Fields{CustomerName: "Ann", JobTitle: "Sign", NeededByDate: "soon"}.Apply(&job), ErrInvalidDate)
	assert.Empty(t, job.CustomerName)
}

func TestFieldsApply_ClearsBlankOptionals(t *testing.T) {
	job := Job{City: OptionalString("Austin"), QuoteAmount: f64(10)}
	err := Fields{CustomerName: " Ann ", JobTitle: "Sign", QuoteAmount: "$2,000", NeededByDate: "04-01-2026"}.Apply(&job)
	require.NoError(t, err)

	assert.Equal(t, "Ann", job.CustomerName)
	assert.Nil(t, job.City)
	assert.Equal(t, 2000.0, *job.QuoteAmount)
	require.NotNil(t, job.NeededByDate)
	assert.Equal(t, time.April, job.NeededByDate.Month())
}

func TestBuildLineItems_SkipsEmptyRows(t *testing.T) {
	items := BuildLineItems([]LineItemInput{
		{Qty: "2", Description: "Decal", MaterialPrice: "$10.50", LaborPrice: "4"},
		{},
		{Qty: "0", MaterialPrice: "0"},
		{LaborPrice: "25"},
	})
	require.Len(t, items, 2)
	assert.Equal(t, 14.5, items[0].LineTotal)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 25.0, items[1].LineTotal)
	assert.Equal(t, 1, items[1].Position)
	assert.Nil(t, items[1].MaterialPrice)
}

func TestDeriveTotals_FillsUnsetOnly(t *testing.T) {
	items := []LineItem{
		{MaterialPrice: f64(100), LaborPrice: f64(50)},
		{MaterialPrice: f64(20)},
	}
	job := Job{TaxRate: f64(8.25), ShippingHandling: f64(10)}

	got := DeriveTotals(job, items)
	require.NotNil(t, got.MaterialsTotal)
	assert.Equal(t, 120.0, *got.MaterialsTotal)
	assert.Equal(t, 50.0, *got.LaborTotal)
	// pre-tax 180, tax 14.85
	assert.Equal(t, 14.85, *got.SalesTax)
	assert.Equal(t, 194.85, *got.GrandTotal)
	assert.Nil(t, job.MaterialsTotal)
}

func TestDeriveTotals_KeepsExplicitTotals(t *testing.T) {
	items := []LineItem{{MaterialPrice: f64(100), LaborPrice: f64(50)}}
	job := Job{MaterialsTotal: f64(90), SalesTax: f64(0), GrandTotal: f64(500), TaxRate: f64(10)}

	got := DeriveTotals(job, items)
	assert.Equal(t, 90.0, *got.MaterialsTotal)
	assert.Equal(t, 50.0, *got.LaborTotal)
	assert.Equal(t, 0.0, *got.SalesTax)
	assert.Equal(t, 500.0, *got.GrandTotal)
}

func TestDeriveTotals_NothingToFill(t *testing.T) {
	got := DeriveTotals(Job{}, nil)
	assert.Nil(t, got.MaterialsTotal)
	assert.Nil(t, got.LaborTotal)
	assert.Nil(t, got.SalesTax)
	assert.Nil(t, got.GrandTotal)
}

func TestUploadedFilePaths(t *testing.T) {
	var job Job
	paths, err := job.UploadedFilePaths()
	require.NoError(t, err)
	assert.Nil(t, paths)

	require.NoError(t, job.SetUploadedFilePaths([]string{"uploads/orders/a.pdf"}))
	paths, err = job.UploadedFilePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/orders/a.pdf"}, paths)
}
