package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout      = "01-02-2006"
	dateLayoutSlash = "01/02/2006"
)

// Fields is the editable part of a job as staff submit it. Dates use
// MM-DD-YYYY and money accepts "$" and thousands separators.
type Fields struct {
	CustomerName string `json:"customer_name"`
	BusinessName string `json:"business_name"`
	PhoneNumber  string `json:"phone_number"`
	Cell         string `json:"cell"`
	EmailAddress string `json:"email_address"`
	Address1     string `json:"address_1"`
	Address2     string `json:"address_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`

	JobTitle      string `json:"job_title"`
	JobSummary    string `json:"job_summary"`
	JobDetails    string `json:"job_details"`
	SummaryOfWork string `json:"summary_of_work"`
	InternalNotes string `json:"internal_notes"`

	ReceivedDate      string `json:"received_date"`
	NeededByDate      string `json:"needed_by_date"`
	ApprovalDate      string `json:"approval_date"`
	ScheduledDate     string `json:"scheduled_date"`
	InspectedDate     string `json:"inspected_date"`
	CompletedDate     string `json:"completed_date"`
	PickupDate        string `json:"pickup_date"`
	ShippingDate      string `json:"shipping_date"`
	MfdDate           string `json:"mfd_date"`
	ProofApprovedDate string `json:"proof_approved_date"`

	InspectedBy          string `json:"inspected_by"`
	VehicleMake          string `json:"vehicle_make"`
	VehicleModel         string `json:"vehicle_model"`
	VIN                  string `json:"vin"`
	UnitNumber           string `json:"unit_number"`
	ProofNumber          string `json:"proof_number"`
	SizeLocationProof    string `json:"size_location_proof"`
	WorkOrder            string `json:"work_order"`
	CrownRep             string `json:"crown_rep"`
	ShippingType         string `json:"shipping_type"`
	TrackingNumber       string `json:"tracking_number"`
	ShipTo               string `json:"ship_to"`
	PickupName           string `json:"pickup_name"`
	FieldServiceLocation string `json:"field_service_location"`

	QuoteAmount      string `json:"quote_amount"`
	MaterialsTotal   string `json:"materials_total"`
	LaborTotal       string `json:"labor_total"`
	TaxRate          string `json:"tax_rate"`
	SalesTax         string `json:"sales_tax"`
	ShippingHandling string `json:"shipping_handling"`
	FieldCharge      string `json:"field_charge"`
	GrandTotal       string `json:"grand_total"`

	// LineItems, when present, replaces the job's rows in the same transaction.
	LineItems *[]LineItemInput `json:"line_items"`
}

// LineItemInput is one submitted row; blank rows are dropped.
type LineItemInput struct {
	Qty           string `json:"qty"`
	Description   string `json:"description"`
	MaterialPrice string `json:"material_price"`
	LaborPrice    string `json:"labor_price"`
}

// Apply copies every editable field onto job. The received date is left to
// the caller because changing it moves the PO number.
func (f Fields) Apply(job *Job) error {
	customer := strings.TrimSpace(f.CustomerName)
	if customer == "" {
		return ErrInvalidCustomerName
	}
	title := strings.TrimSpace(f.JobTitle)
	if title == "" {
		return ErrInvalidTitle
	}

	dates := []struct {
		raw string
		dst **time.Time
	}{
		{f.NeededByDate, &job.NeededByDate},
		{f.ApprovalDate, &job.ApprovalDate},
		{f.ScheduledDate, &job.ScheduledDate},
		{f.InspectedDate, &job.InspectedDate},
		{f.CompletedDate, &job.CompletedDate},
		{f.PickupDate, &job.PickupDate},
		{f.ShippingDate, &job.ShippingDate},
		{f.MfdDate, &job.MfdDate},
		{f.ProofApprovedDate, &job.ProofApprovedDate},
	}
	parsed := make([]*time.Time, len(dates))
	for i, d := range dates {
		value, err := ParseDate(d.raw)
		if err != nil {
			return err
		}
		parsed[i] = value
	}
	for i, d := range dates {
		*d.dst = parsed[i]
	}

	job.CustomerName = customer
	job.BusinessName = OptionalString(f.BusinessName)
	job.PhoneNumber = OptionalString(f.PhoneNumber)
	job.Cell = OptionalString(f.Cell)
	job.EmailAddress = OptionalString(f.EmailAddress)
	job.Address1 = OptionalString(f.Address1)
	job.Address2 = OptionalString(f.Address2)
	job.City = OptionalString(f.City)
	job.State = OptionalString(f.State)
	job.ZipCode = OptionalString(f.ZipCode)

	job.JobTitle = title
	job.JobSummary = OptionalString(f.JobSummary)
	job.JobDetails = OptionalString(f.JobDetails)
	job.SummaryOfWork = OptionalString(f.SummaryOfWork)
	job.InternalNotes = OptionalString(f.InternalNotes)

	job.InspectedBy = OptionalString(f.InspectedBy)
	job.VehicleMake = OptionalString(f.VehicleMake)
	job.VehicleModel = OptionalString(f.VehicleModel)
	job.VIN = OptionalString(f.VIN)
	job.UnitNumber = OptionalString(f.UnitNumber)
	job.ProofNumber = OptionalString(f.ProofNumber)
	job.SizeLocationProof = OptionalString(f.SizeLocationProof)
	job.WorkOrder = OptionalString(f.WorkOrder)
	job.CrownRep = OptionalString(f.CrownRep)
	job.ShippingType = OptionalString(f.ShippingType)
	job.TrackingNumber = OptionalString(f.TrackingNumber)
	job.ShipTo = OptionalString(f.ShipTo)
	job.PickupName = OptionalString(f.PickupName)
	job.FieldServiceLocation = OptionalString(f.FieldServiceLocation)

	job.QuoteAmount = ParseMoney(f.QuoteAmount)
	job.MaterialsTotal = ParseMoney(f.MaterialsTotal)
	job.LaborTotal = ParseMoney(f.LaborTotal)
	job.TaxRate = ParseMoney(f.TaxRate)
	job.SalesTax = ParseMoney(f.SalesTax)
	job.ShippingHandling = ParseMoney(f.ShippingHandling)
	job.FieldCharge = ParseMoney(f.FieldCharge)
	job.GrandTotal = ParseMoney(f.GrandTotal)
	return nil
}

// ParseDate reads MM-DD-YYYY (or MM/DD/YYYY). Blank input is nil.
func ParseDate(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, dateLayoutSlash} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t, nil
		}
	}
	return nil, ErrInvalidDate
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseMoney strips "$" and "," before parsing. Anything unparseable is nil.
func ParseMoney(value string) *float64 {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

func ParseInt(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &n
}

func OptionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
