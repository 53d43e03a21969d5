package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims the contact fields and drops the variant that does not
// match OrderType.
func (s Submission) Normalize() Submission {
	s.OrderType = OrderType(strings.ToLower(strings.TrimSpace(string(s.OrderType))))
	s.OrderID = strings.TrimSpace(s.OrderID)
	s.Contact.Name = strings.TrimSpace(s.Contact.Name)
	s.Contact.Email = strings.TrimSpace(s.Contact.Email)
	s.Contact.Phone = strings.TrimSpace(s.Contact.Phone)
	s.Contact.Company = strings.TrimSpace(s.Contact.Company)
	s.Contact.Notes = strings.TrimSpace(s.Contact.Notes)

	switch s.OrderType {
	case OrderTypeQuick:
		s.Large = nil
		if s.Quick == nil {
			s.Quick = &QuickOrderFields{}
		}
	case OrderTypeLarge:
		s.Quick = nil
		if s.Large == nil {
			s.Large = &LargeProjectFields{}
		}
	}

	items := make([]ItemRow, 0, len(s.Items))
	for _, item := range s.Items {
		if item.IsEmpty() {
			continue
		}
		items = append(items, item)
	}
	s.Items = items
	return s
}

func (s Submission) Validate() error {
	if _, err := ParseOrderType(string(s.OrderType)); err != nil {
		return err
	}
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidPayload
	}
	for _, fe := range verrs {
		switch fe.StructNamespace() {
		case "Submission.Contact.Name":
			return ErrInvalidName
		case "Submission.Contact.Email":
			return ErrInvalidEmail
		case "Submission.OrderID":
			return ErrInvalidOrderID
		case "Submission.OrderType":
			return ErrInvalidOrderType
		}
	}
	return ErrInvalidPayload
}
