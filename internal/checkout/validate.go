package checkout

import (
	"regexp"
	"strings"
)

const maxFreeTextLen = 500

var (
	emailRe   = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
	phoneRe   = regexp.MustCompile(`^(\+91[\-\s]?)?[0-9]{10}$`)
	pincodeRe = regexp.MustCompile(`^[0-9]{6}$`)
)

// CheckoutForm is the buyer-entered half of an order.
type CheckoutForm struct {
	Name       string `json:"user_name"`
	Email      string `json:"user_email"`
	Phone      string `json:"user_phone"`
	FlatNumber string `json:"flat_number"`
	Colony     string `json:"colony"`
	City       string `json:"city"`
	State      string `json:"state"`
	Pincode    string `json:"pincode"`
	OrderNotes string `json:"order_notes"`
}

// FieldErrors maps a form field to its error message. Field-scoped errors
// are recoverable: the attempt stays in form entry and nothing goes over
// the network.
type FieldErrors map[string]string

func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// Validate runs the full-field presence and format checks.
func Validate(f CheckoutForm) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs["user_name"] = "name is required"
	}
	if !emailRe.MatchString(strings.TrimSpace(f.Email)) {
		errs["user_email"] = "valid email is required"
	}
	if !phoneRe.MatchString(strings.TrimSpace(f.Phone)) {
		errs["user_phone"] = "10-digit phone number is required"
	}
	if strings.TrimSpace(f.FlatNumber) == "" {
		errs["flat_number"] = "flat/house number is required"
	}
	if strings.TrimSpace(f.City) == "" {
		errs["city"] = "city is required"
	}
	if strings.TrimSpace(f.State) == "" {
		errs["state"] = "state is required"
	}
	if !pincodeRe.MatchString(strings.TrimSpace(f.Pincode)) {
		errs["pincode"] = "6-digit pincode is required"
	}
	return errs
}

// Sanitize trims and length-limits every free-text field before the form
// goes anywhere near persistence.
func Sanitize(f CheckoutForm) CheckoutForm {
	f.Name = clip(f.Name)
	f.Email = clip(f.Email)
	f.Phone = clip(f.Phone)
	f.FlatNumber = clip(f.FlatNumber)
	f.Colony = clip(f.Colony)
	f.City = clip(f.City)
	f.State = clip(f.State)
	f.Pincode = clip(f.Pincode)
	f.OrderNotes = clip(f.OrderNotes)
	return f
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxFreeTextLen {
		return s[:maxFreeTextLen]
	}
	return s
}
