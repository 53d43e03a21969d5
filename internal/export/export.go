// Package export renders job lists as spreadsheets.
package export

import (
	"context"
	"fmt"
	"io"

	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sheetName = "Jobs"
	// FileName is the download name of the jobs workbook.
	FileName    = "jobs.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{"PO", "Title", "Customer", "Stage", "Received", "Grand Total"}

type JobLister interface {
	ListAll(ctx context.Context) ([]jobdomain.Job, error)
}

type Params struct {
	fx.In

	Jobs jobdomain.Service
	Log  *zap.Logger
}

type Exporter struct {
	jobs JobLister
	log  *zap.Logger
}

func New(p Params) *Exporter {
	return NewWithLister(p.Jobs, p.Log)
}

func NewWithLister(jobs JobLister, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{jobs: jobs, log: log.Named("export")}
}

// WriteJobs writes every job, newest received first, as an xlsx workbook.
func (e *Exporter) WriteJobs(ctx context.Context, w io.Writer) error {
	jobs, err := e.jobs.ListAll(ctx)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(jobs)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.log.Warn("close workbook", zap.Error(cerr))
		}
	}()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	e.log.Debug("jobs exported", zap.Int("rows", len(jobs)))
	return nil
}

func buildWorkbook(jobs []jobdomain.Job) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for col, label := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheetName, cell, label)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 32)
	_ = f.SetColWidth(sheetName, "D", "F", 16)

	for i, job := range jobs {
		row := i + 2
		values := []any{
			job.PODisplay(),
			job.JobTitle,
			job.CustomerName,
			string(job.Stage),
			job.ReceivedDate.Format("01-02-2006"),
			nil,
		}
		if job.GrandTotal != nil {
			values[5] = *job.GrandTotal
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, err
		}
		total, _ := excelize.CoordinatesToCellName(6, row)
		_ = f.SetCellStyle(sheetName, total, total, moneyStyle)
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
