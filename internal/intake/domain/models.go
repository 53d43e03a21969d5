package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type OrderType string

const (
	OrderTypeQuick OrderType = "quick"
	OrderTypeLarge OrderType = "large"
)

func ParseOrderType(value string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(value))) {
	case OrderTypeQuick:
		return OrderTypeQuick, nil
	case OrderTypeLarge:
		return OrderTypeLarge, nil
	default:
		return "", ErrInvalidOrderType
	}
}

type Contact struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,max=160"`
	Phone   string `json:"phone,omitempty" validate:"max=40"`
	Company string `json:"company,omitempty" validate:"max=120"`
	Notes   string `json:"notes,omitempty"`
}

// QuickOrderFields are the extra fields of a quick print order.
type QuickOrderFields struct {
	RequestedItem string `json:"requested_item,omitempty"`
	NeededBy      string `json:"needed_by,omitempty"`
	ContactMethod string `json:"contact_method,omitempty"`
}

// LargeProjectFields are the extra fields of a large project request.
type LargeProjectFields struct {
	ProjectType     string `json:"project_type,omitempty"`
	Service         string `json:"service,omitempty"`
	InstallLocation string `json:"install_location,omitempty"`
	VehicleYear     string `json:"vehicle_year,omitempty"`
	VehicleMake     string `json:"vehicle_make,omitempty"`
	VehicleModel    string `json:"vehicle_model,omitempty"`
	VIN             string `json:"vin,omitempty"`
	UnitNumber      string `json:"unit_number,omitempty"`
	Scope           string `json:"scope,omitempty"`
}

// ItemRow is one requested item as the customer typed it.
type ItemRow struct {
	Qty         string `json:"qty"`
	Description string `json:"description"`
	Material    string `json:"material"`
	Notes       string `json:"notes"`
}

// UnmarshalJSON accepts numbers or strings for any field and "desc" as an
// alias for description.
func (r *ItemRow) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Qty = stringify(raw["qty"])
	r.Description = stringify(raw["description"])
	if r.Description == "" {
		r.Description = stringify(raw["desc"])
	}
	r.Material = stringify(raw["material"])
	r.Notes = stringify(raw["notes"])
	return nil
}

func (r ItemRow) IsEmpty() bool {
	return strings.TrimSpace(r.Qty) == "" &&
		strings.TrimSpace(r.Description) == "" &&
		strings.TrimSpace(r.Material) == "" &&
		strings.TrimSpace(r.Notes) == ""
}

// ParseItems decodes the items_json form field. Anything that is not a JSON
// array of objects yields no items.
func ParseItems(raw string) []ItemRow {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil
	}
	items := make([]ItemRow, 0, len(rows))
	for _, row := range rows {
		var item ItemRow
		if err := json.Unmarshal(row, &item); err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Submission is one order posted from the website. Exactly one of Quick or
// Large is set, matching OrderType.
type Submission struct {
	OrderType     OrderType           `json:"order_type" validate:"required,oneof=quick large"`
	OrderID       string              `json:"order_id" validate:"max=80"`
	Contact       Contact             `json:"contact"`
	Quick         *QuickOrderFields   `json:"quick,omitempty"`
	Large         *LargeProjectFields `json:"large,omitempty"`
	Items         []ItemRow           `json:"items"`
	UploadedPaths []string            `json:"uploaded_files"`
	CreatedAt     time.Time           `json:"created_at"`
	// Form holds the fields exactly as posted.
	Form map[string]string `json:"form,omitempty"`
}

// OrderSummary is the header block shared by the PDF and the emails.
type OrderSummary struct {
	OrderID   string
	OrderType OrderType
	CreatedAt time.Time
	Name      string
	Email     string
	Phone     string
	Company   string
}

func (s Submission) Summary() OrderSummary {
	return OrderSummary{
		OrderID:   s.OrderID,
		OrderType: s.OrderType,
		CreatedAt: s.CreatedAt,
		Name:      s.Contact.Name,
		Email:     s.Contact.Email,
		Phone:     s.Contact.Phone,
		Company:   s.Contact.Company,
	}
}

// Notification is everything the email side needs for one order.
type Notification struct {
	Order         OrderSummary
	Items         []ItemRow
	PDF           []byte
	UploadedPaths []string
}

// Result reports what happened to a submission. Email failures never fail
// the submission; they surface through EmailSent and EmailError. EmailSent
// tracks the shop notification, so EmailSent with an EmailError means only
// the customer confirmation failed.
type Result struct {
	OrderID     string       `json:"order_id"`
	JobID       snowflake.ID `json:"job_id"`
	Deduped     bool         `json:"deduped"`
	EmailSent   bool         `json:"email_sent"`
	EmailError  *string      `json:"email_error"`
	ChangeToken string       `json:"-"`
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
