// Package checkout owns the fee arithmetic and the per-attempt submission
// state machine for both payment methods.
package checkout

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

// FeeSchedule carries the flat surcharges. Values come from configuration,
// not constants, so deployments can change them without a rebuild.
type FeeSchedule struct {
	CustomizationFee int64
	CODFee           int64
}

// Quote is the payable breakdown for one checkout attempt.
// Total = Subtotal + CustomizationFee + CODFee, always.
type Quote struct {
	Subtotal         int64 `json:"subtotal"`
	CustomizationFee int64 `json:"customization_fee"`
	CODFee           int64 `json:"cod_fee"`
	Total            int64 `json:"total_amount"`
}

// Compute builds the quote. The COD fee applies only to cash-on-delivery.
// Totals are recomputed server-side from this same function before any
// order is persisted; a client-submitted total is never trusted.
func (f FeeSchedule) Compute(subtotal, customizationFee int64, method PaymentMethod) Quote {
	q := Quote{
		Subtotal:         subtotal,
		CustomizationFee: customizationFee,
	}
	if method == MethodCOD {
		q.CODFee = f.CODFee
	}
	q.Total = q.Subtotal + q.CustomizationFee + q.CODFee
	return q
}
