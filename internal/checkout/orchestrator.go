package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/makeathera-byte/3layered/internal/cart"
	"github.com/makeathera-byte/3layered/internal/payment"
)

// State of one checkout attempt.
type State string

const (
	StateFormEntry       State = "FORM_ENTRY"
	StateValidating      State = "VALIDATING"
	StateCODSubmitting   State = "COD_SUBMITTING"
	StateGatewayInit     State = "GATEWAY_INIT"
	StateWidgetOpen      State = "WIDGET_OPEN"
	StateVerifying       State = "VERIFYING"
	StateOrderPersisting State = "ORDER_PERSISTING"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Outcome of the payment widget. Cancellation is user intent, not an
// error, and is reported separately from failure.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeCancelled
)

// WidgetResult is what the hosted widget hands back when the user is done
// with it.
type WidgetResult struct {
	Outcome   Outcome
	PaymentID string
	Signature string
	Reason    string
}

// Gateway creates the gateway-side order the widget is opened with.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.GatewayOrder, error)
}

// Widget is the hosted payment modal. Open returns immediately; the result
// arrives on the channel whenever the user finishes, fails or dismisses.
// There is no programmatic timeout: the widget is the one genuine
// suspension point of the flow.
type Widget interface {
	Open(ctx context.Context, order *payment.GatewayOrder, q Quote) <-chan WidgetResult
}

// Submitter persists orders. VerifyAndCreate must check the signature and
// write the order in one atomic step, and must write nothing on mismatch.
type Submitter interface {
	SubmitCOD(ctx context.Context, form CheckoutForm, c *cart.Cart, q Quote) (orderNumber string, err error)
	VerifyAndCreate(ctx context.Context, form CheckoutForm, c *cart.Cart, q Quote, gatewayOrderID, paymentID, signature string) (orderNumber string, err error)
}

var (
	ErrGateway      = errors.New("payment gateway error")
	ErrVerification = errors.New("payment verification failed")
)

type Orchestrator struct {
	Gateway   Gateway
	Widget    Widget
	Submitter Submitter
	Fees      FeeSchedule
	Currency  string
}

// Result of one attempt. Exactly one of these holds: State is DONE with an
// OrderNumber; State is FORM_ENTRY with FieldErrors or Cancelled set;
// State is FAILED with a non-nil Err. A failed attempt always carries a
// message for the user.
type Result struct {
	State       State
	Trail       []State
	OrderNumber string
	Quote       Quote
	FieldErrors FieldErrors
	Cancelled   bool
	Err         error
}

// Submit runs one checkout attempt to a terminal outcome. No step retries
// automatically; the caller restarts checkout after a failure.
func (o *Orchestrator) Submit(ctx context.Context, form CheckoutForm, c *cart.Cart, method PaymentMethod) Result {
	res := Result{State: StateFormEntry, Trail: []State{StateFormEntry}}
	advance := func(s State) {
		res.State = s
		res.Trail = append(res.Trail, s)
	}
	fail := func(err error) Result {
		advance(StateFailed)
		res.Err = err
		return res
	}

	advance(StateValidating)
	form = Sanitize(form)
	if errs := Validate(form); errs.Any() {
		// Back to form entry, errors surfaced per field, no network call.
		advance(StateFormEntry)
		res.FieldErrors = errs
		return res
	}
	if c.TotalItems() == 0 {
		return fail(errors.New("cart is empty"))
	}

	res.Quote = o.Fees.Compute(c.Subtotal(), c.CustomizationFee(o.Fees.CustomizationFee), method)

	if method == MethodCOD {
		advance(StateCODSubmitting)
		number, err := o.Submitter.SubmitCOD(ctx, form, c, res.Quote)
		if err != nil {
			return fail(err)
		}
		return o.finish(&res, advance, c, number)
	}

	advance(StateGatewayInit)
	receipt := "rcpt_" + uuid.NewString()
	gwOrder, err := o.Gateway.CreateOrder(ctx, res.Quote.Total*100, o.Currency, receipt, map[string]string{
		"customer_email": form.Email,
	})
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrGateway, err))
	}

	advance(StateWidgetOpen)
	var widget WidgetResult
	select {
	case widget = <-o.Widget.Open(ctx, gwOrder, res.Quote):
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	switch widget.Outcome {
	case OutcomeCancelled:
		// User dismissed the widget. Nothing was persisted, so the attempt
		// resets with no side effects.
		advance(StateFormEntry)
		res.Cancelled = true
		return res
	case OutcomeFailure:
		reason := widget.Reason
		if reason == "" {
			reason = "payment failed"
		}
		return fail(fmt.Errorf("%w: %s", ErrGateway, reason))
	}

	advance(StateVerifying)
	number, err := o.Submitter.VerifyAndCreate(ctx, form, c, res.Quote, gwOrder.ID, widget.PaymentID, widget.Signature)
	if err != nil {
		return fail(err)
	}

	advance(StateOrderPersisting)
	return o.finish(&res, advance, c, number)
}

func (o *Orchestrator) finish(res *Result, advance func(State), c *cart.Cart, number string) Result {
	advance(StateDone)
	res.OrderNumber = number
	c.Clear()
	return *res
}
