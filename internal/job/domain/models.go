package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/ponumber"
	"gorm.io/datatypes"
)

const (
	SourceManual  = "manual"
	SourceWebsite = "website"
)

// Job is one print or production order.
type Job struct {
	ID snowflake.ID `gorm:"primaryKey" json:"id"`

	CustomerName string  `gorm:"column:customer_name;size:120;not null" json:"customer_name"`
	BusinessName *string `gorm:"column:business_name;size:120" json:"business_name,omitempty"`
	PhoneNumber  *string `gorm:"column:phone_number;size:40" json:"phone_number,omitempty"`
	Cell         *string `gorm:"column:cell;size:40" json:"cell,omitempty"`
	EmailAddress *string `gorm:"column:email_address;size:160" json:"email_address,omitempty"`
	Address1     *string `gorm:"column:address_1;size:160" json:"address_1,omitempty"`
	Address2     *string `gorm:"column:address_2;size:160" json:"address_2,omitempty"`
	City         *string `gorm:"column:city;size:80" json:"city,omitempty"`
	State        *string `gorm:"column:state;size:40" json:"state,omitempty"`
	ZipCode      *string `gorm:"column:zip_code;size:20" json:"zip_code,omitempty"`

	JobTitle      string  `gorm:"column:job_title;size:140;not null" json:"job_title"`
	JobSummary    *string `gorm:"column:job_summary;size:240" json:"job_summary,omitempty"`
	JobDetails    *string `gorm:"column:job_details;type:text" json:"job_details,omitempty"`
	SummaryOfWork *string `gorm:"column:summary_of_work;type:text" json:"summary_of_work,omitempty"`
	InternalNotes *string `gorm:"column:internal_notes;type:text" json:"internal_notes,omitempty"`

	ReceivedDate      time.Time  `gorm:"column:received_date;type:date;not null" json:"received_date"`
	NeededByDate      *time.Time `gorm:"column:needed_by_date;type:date" json:"needed_by_date,omitempty"`
	ApprovalDate      *time.Time `gorm:"column:approval_date;type:date" json:"approval_date,omitempty"`
	ScheduledDate     *time.Time `gorm:"column:scheduled_date;type:date" json:"scheduled_date,omitempty"`
	InspectedDate     *time.Time `gorm:"column:inspected_date;type:date" json:"inspected_date,omitempty"`
	CompletedDate     *time.Time `gorm:"column:completed_date;type:date" json:"completed_date,omitempty"`
	PickupDate        *time.Time `gorm:"column:pickup_date;type:date" json:"pickup_date,omitempty"`
	ShippingDate      *time.Time `gorm:"column:shipping_date;type:date" json:"shipping_date,omitempty"`
	MfdDate           *time.Time `gorm:"column:mfd_date;type:date" json:"mfd_date,omitempty"`
	ProofApprovedDate *time.Time `gorm:"column:proof_approved_date;type:date" json:"proof_approved_date,omitempty"`

	InspectedBy          *string `gorm:"column:inspected_by;size:80" json:"inspected_by,omitempty"`
	VehicleMake          *string `gorm:"column:vehicle_make;size:80" json:"vehicle_make,omitempty"`
	VehicleModel         *string `gorm:"column:vehicle_model;size:80" json:"vehicle_model,omitempty"`
	VIN                  *string `gorm:"column:vin;size:80" json:"vin,omitempty"`
	UnitNumber           *string `gorm:"column:unit_number;size:80" json:"unit_number,omitempty"`
	ProofNumber          *string `gorm:"column:proof_number;size:80" json:"proof_number,omitempty"`
	SizeLocationProof    *string `gorm:"column:size_location_proof;size:160" json:"size_location_proof,omitempty"`
	WorkOrder            *string `gorm:"column:work_order;size:80" json:"work_order,omitempty"`
	CrownRep             *string `gorm:"column:crown_rep;size:80" json:"crown_rep,omitempty"`
	ShippingType         *string `gorm:"column:shipping_type;size:80" json:"shipping_type,omitempty"`
	TrackingNumber       *string `gorm:"column:tracking_number;size:120" json:"tracking_number,omitempty"`
	ShipTo               *string `gorm:"column:ship_to;type:text" json:"ship_to,omitempty"`
	PickupName           *string `gorm:"column:pickup_name;size:120" json:"pickup_name,omitempty"`
	FieldServiceLocation *string `gorm:"column:field_service_location;size:160" json:"field_service_location,omitempty"`

	Stage     Stage  `gorm:"column:stage;size:40;not null" json:"stage"`
	PODateKey string `gorm:"column:po_date_key;size:6;not null;index" json:"po_date_key"`
	POSeq     int    `gorm:"column:po_seq;not null" json:"po_seq"`

	IsNew          bool           `gorm:"column:is_new;not null" json:"is_new"`
	Source         *string        `gorm:"column:source;size:40" json:"source,omitempty"`
	IntakeOrderID  *string        `gorm:"column:intake_order_id;size:80;uniqueIndex:ux_jobs_intake_order_id" json:"intake_order_id,omitempty"`
	SubmissionJSON datatypes.JSON `gorm:"column:submission_json" json:"-"`
	UploadedFiles  datatypes.JSON `gorm:"column:uploaded_files_json" json:"-"`

	QuoteAmount      *float64 `gorm:"column:quote_amount" json:"quote_amount,omitempty"`
	MaterialsTotal   *float64 `gorm:"column:materials_total" json:"materials_total,omitempty"`
	LaborTotal       *float64 `gorm:"column:labor_total" json:"labor_total,omitempty"`
	TaxRate          *float64 `gorm:"column:tax_rate" json:"tax_rate,omitempty"`
	SalesTax         *float64 `gorm:"column:sales_tax" json:"sales_tax,omitempty"`
	ShippingHandling *float64 `gorm:"column:shipping_handling" json:"shipping_handling,omitempty"`
	FieldCharge      *float64 `gorm:"column:field_charge" json:"field_charge,omitempty"`
	GrandTotal       *float64 `gorm:"column:grand_total" json:"grand_total,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (Job) TableName() string { return "jobs" }

// PODisplay renders the purchase-order number, or "" when unset.
func (j Job) PODisplay() string {
	return ponumber.Display(j.PODateKey, j.POSeq)
}

// DisplayName joins title, received date and PO with " • ", skipping blanks.
func (j Job) DisplayName() string {
	parts := make([]string, 0, 3)
	if title := strings.TrimSpace(j.JobTitle); title != "" {
		parts = append(parts, title)
	}
	if !j.ReceivedDate.IsZero() {
		parts = append(parts, FormatDate(j.ReceivedDate))
	}
	if po := j.PODisplay(); po != "" {
		parts = append(parts, po)
	}
	return strings.Join(parts, " • ")
}

// Submission decodes the raw intake payload. Jobs created by staff have none.
func (j Job) Submission() (map[string]any, error) {
	if len(j.SubmissionJSON) == 0 {
		return nil, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(j.SubmissionJSON, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// UploadedFilePaths decodes the stored upload list.
func (j Job) UploadedFilePaths() ([]string, error) {
	if len(j.UploadedFiles) == 0 {
		return nil, nil
	}
	var paths []string
	if err := json.Unmarshal(j.UploadedFiles, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// SetUploadedFilePaths replaces the stored upload list.
func (j *Job) SetUploadedFilePaths(paths []string) error {
	if len(paths) == 0 {
		j.UploadedFiles = nil
		return nil
	}
	raw, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	j.UploadedFiles = datatypes.JSON(raw)
	return nil
}

// LineItem is one priced row of a job.
type LineItem struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID         snowflake.ID `gorm:"column:job_id;not null;index" json:"job_id"`
	Position      int          `gorm:"column:position;not null" json:"position"`
	Qty           *int         `gorm:"column:qty" json:"qty,omitempty"`
	Description   *string      `gorm:"column:description;type:text" json:"description,omitempty"`
	MaterialPrice *float64     `gorm:"column:material_price" json:"material_price,omitempty"`
	LaborPrice    *float64     `gorm:"column:labor_price" json:"labor_price,omitempty"`
	LineTotal     float64      `gorm:"column:line_total;not null" json:"line_total"`
}

func (LineItem) TableName() string { return "job_line_items" }
