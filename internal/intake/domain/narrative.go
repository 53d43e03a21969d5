package domain

import (
	"fmt"
	"strings"
	"time"

	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
)

const maxTitle = 140

// JobTitle is the title staff see for a website order.
func (s Submission) JobTitle() string {
	var subject string
	switch {
	case s.Quick != nil:
		subject = s.Quick.RequestedItem
	case s.Large != nil:
		subject = firstNonEmpty(s.Large.ProjectType, s.Large.Service)
	}
	title := fmt.Sprintf("Website %s order", s.OrderType)
	if subject = strings.TrimSpace(subject); subject != "" {
		title += ": " + subject
	}
	if len([]rune(title)) > maxTitle {
		title = string([]rune(title)[:maxTitle])
	}
	return title
}

// Narrative renders the submission as labelled sections for the job
// details. Empty fields are left out.
func (s Submission) Narrative() string {
	var sections []string

	sections = append(sections, section("Order",
		field("Order ID", s.OrderID),
		field("Type", string(s.OrderType)),
	))

	if q := s.Quick; q != nil {
		sections = append(sections, section("Quick order",
			field("Requested item", q.RequestedItem),
			field("Needed by", q.NeededBy),
			field("Contact method", q.ContactMethod),
		))
	}
	if l := s.Large; l != nil {
		vehicle := strings.Join(nonEmpty(l.VehicleYear, l.VehicleMake, l.VehicleModel), " ")
		sections = append(sections, section("Project",
			field("Project type", l.ProjectType),
			field("Service", l.Service),
			field("Install location", l.InstallLocation),
		))
		sections = append(sections, section("Vehicle",
			field("Vehicle", vehicle),
			field("VIN", l.VIN),
			field("Unit", l.UnitNumber),
		))
		if scope := strings.TrimSpace(l.Scope); scope != "" {
			sections = append(sections, "Scope:\n"+scope)
		}
	}

	if len(s.Items) > 0 {
		lines := make([]string, 0, len(s.Items)+1)
		lines = append(lines, "Items:")
		for i, item := range s.Items {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item.Line()))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if notes := strings.TrimSpace(s.Contact.Notes); notes != "" {
		sections = append(sections, "Customer notes:\n"+notes)
	}
	if len(s.UploadedPaths) > 0 {
		sections = append(sections, fmt.Sprintf("Uploads: %d file(s)", len(s.UploadedPaths)))
	}

	out := make([]string, 0, len(sections))
	for _, sec := range sections {
		if sec != "" {
			out = append(out, sec)
		}
	}
	return strings.Join(out, "\n\n")
}

// Line describes an item in one line: description, material and notes.
func (r ItemRow) Line() string {
	parts := nonEmpty(r.Description)
	if qty := strings.TrimSpace(r.Qty); qty != "" {
		parts = append([]string{"Qty " + qty}, parts...)
	}
	if m := strings.TrimSpace(r.Material); m != "" {
		parts = append(parts, "Material: "+m)
	}
	if n := strings.TrimSpace(r.Notes); n != "" {
		parts = append(parts, "Notes: "+n)
	}
	return strings.Join(parts, "; ")
}

// ToJob maps the submission onto a job for the intake path. The raw
// payload is attached by the caller.
func (s Submission) ToJob() jobdomain.Job {
	orderID := s.OrderID
	job := jobdomain.Job{
		CustomerName:  s.Contact.Name,
		BusinessName:  jobdomain.OptionalString(s.Contact.Company),
		PhoneNumber:   jobdomain.OptionalString(s.Contact.Phone),
		EmailAddress:  jobdomain.OptionalString(s.Contact.Email),
		JobTitle:      s.JobTitle(),
		JobSummary:    jobdomain.OptionalString(truncate(s.summaryLine(), 240)),
		JobDetails:    jobdomain.OptionalString(s.Narrative()),
		IntakeOrderID: &orderID,
	}
	if !s.CreatedAt.IsZero() {
		job.ReceivedDate = time.Date(s.CreatedAt.Year(), s.CreatedAt.Month(), s.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
	}

	if q := s.Quick; q != nil {
		job.NeededByDate = parseNeededBy(q.NeededBy)
	}
	if l := s.Large; l != nil {
		job.VehicleMake = jobdomain.OptionalString(l.VehicleMake)
		job.VehicleModel = jobdomain.OptionalString(l.VehicleModel)
		job.VIN = jobdomain.OptionalString(l.VIN)
		job.UnitNumber = jobdomain.OptionalString(l.UnitNumber)
		job.FieldServiceLocation = jobdomain.OptionalString(l.InstallLocation)
		job.SummaryOfWork = jobdomain.OptionalString(l.Scope)
	}
	return job
}

// LineItems converts item rows 1:1 into job line items.
func (s Submission) LineItems() []jobdomain.LineItem {
	items := make([]jobdomain.LineItem, 0, len(s.Items))
	for i, row := range s.Items {
		desc := row.Description
		if m := strings.TrimSpace(row.Material); m != "" {
			desc = strings.TrimSpace(desc + " (Material: " + m + ")")
		}
		if n := strings.TrimSpace(row.Notes); n != "" {
			desc = strings.TrimSpace(desc + " Notes: " + n)
		}
		items = append(items, jobdomain.LineItem{
			Position:    i,
			Qty:         jobdomain.ParseInt(row.Qty),
			Description: jobdomain.OptionalString(desc),
		})
	}
	return items
}

func (s Submission) summaryLine() string {
	switch {
	case s.Quick != nil && s.Quick.RequestedItem != "":
		return s.Quick.RequestedItem
	case s.Large != nil:
		return strings.Join(nonEmpty(s.Large.ProjectType, s.Large.Service, s.Large.InstallLocation), " / ")
	}
	if len(s.Items) > 0 {
		return s.Items[0].Line()
	}
	return ""
}

// parseNeededBy accepts the shop's MM-DD-YYYY format and the ISO dates that
// browser date inputs post.
func parseNeededBy(value string) *time.Time {
	if d, err := jobdomain.ParseDate(value); err == nil && d != nil {
		return d
	}
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(value)); err == nil {
		return &d
	}
	return nil
}

func section(title string, lines ...string) string {
	body := nonEmpty(lines...)
	if len(body) == 0 {
		return ""
	}
	return title + ":\n" + strings.Join(body, "\n")
}

func field(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func truncate(value string, n int) string {
	runes := []rune(value)
	if len(runes) <= n {
		return value
	}
	return string(runes[:n])
}
