package booking

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/internal/pricing"
	"github.com/xtclovver/tourgate/pkg/validator"
)

// State is the wizard's position in the booking flow
type State string

const (
	// StateEditing: step 1, traveler and contact details
	StateEditing State = "editing"

	// StateReviewing: step 2, computed summary awaiting confirmation
	StateReviewing State = "reviewing"

	// StateSubmitting: a creation request is in flight
	StateSubmitting State = "submitting"

	// StateSucceeded: the order exists; the draft has been discarded
	StateSucceeded State = "succeeded"
)

var (
	// ErrNotEditable indicates a field edit arrived outside Editing/Reviewing
	ErrNotEditable = errors.New("booking fields are locked in the current step")

	// ErrValidationFailed indicates step 1 cannot be left; see FieldErrors
	ErrValidationFailed = errors.New("booking details failed validation")

	// ErrInvalidTransition indicates the requested step change is not allowed
	ErrInvalidTransition = errors.New("invalid wizard transition")

	// ErrTornDown indicates the wizard was abandoned before the call
	ErrTornDown = errors.New("booking wizard has been torn down")
)

// submitOutcome is a single in-flight submission shared by every Submit call
// that arrives while it runs
type submitOutcome struct {
	done  chan struct{}
	order *models.Order
	err   error
}

// Deps bundles the wizard's collaborators
type Deps struct {
	Calculator *pricing.Calculator
	Contacts   *validator.ContactValidator
	Submitter  *Submitter
	Logger     *logrus.Logger

	// OnSuccess is the single navigation side effect fired after a
	// successful submission (the redirect to the confirmation page)
	OnSuccess func(order *models.Order)
}

// Wizard is the booking state machine. It owns a DraftOrder through
// Editing -> Reviewing -> Submitting -> Succeeded, recomputing the price on
// every dependency change and allowing at most one outstanding creation
// request.
type Wizard struct {
	deps Deps

	mu          sync.Mutex
	state       State
	draft       *models.DraftOrder
	tour        *models.Tour
	date        *models.TourDate
	room        *models.Room
	breakdown   pricing.Breakdown
	fieldErrors map[string]string
	lastErr     error
	order       *models.Order
	inflight    *submitOutcome
	tornDown    bool
}

// NewWizard opens the booking wizard over a draft. tour and date must be
// loaded; room may be nil. The initial price is computed immediately.
func NewWizard(deps Deps, draft *models.DraftOrder, tour *models.Tour, date *models.TourDate, room *models.Room) *Wizard {
	w := &Wizard{
		deps:        deps,
		state:       StateEditing,
		draft:       draft,
		tour:        tour,
		date:        date,
		room:        room,
		fieldErrors: map[string]string{},
	}
	w.recomputeLocked()
	return w
}

// State returns the current wizard state
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a snapshot of the draft, or nil after success/teardown
func (w *Wizard) Draft() *models.DraftOrder {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draft == nil {
		return nil
	}
	snapshot := *w.draft
	return &snapshot
}

// Breakdown returns the latest computed price breakdown
func (w *Wizard) Breakdown() pricing.Breakdown {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.breakdown
}

// FieldErrors returns the field-level validation messages from the last
// failed Review attempt
func (w *Wizard) FieldErrors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := make(map[string]string, len(w.fieldErrors))
	for k, v := range w.fieldErrors {
		errs[k] = v
	}
	return errs
}

// Err returns the submission error the user is currently looking at, if any
func (w *Wizard) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Order returns the persisted order after a successful submission
func (w *Wizard) Order() *models.Order {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.order
}

// SetTravelerCount edits the traveler count and recomputes the price
func (w *Wizard) SetTravelerCount(n int) error {
	return w.edit(func() {
		if n < 1 {
			n = 1
		}
		w.draft.TravelerCount = n
	}, true)
}

// SelectTourDate switches the travel date and recomputes the price
func (w *Wizard) SelectTourDate(date *models.TourDate) error {
	return w.edit(func() {
		w.date = date
		if date != nil {
			w.draft.TourDateID = date.ID
		}
	}, true)
}

// SelectRoom attaches or detaches a hotel room and recomputes the price
func (w *Wizard) SelectRoom(room *models.Room) error {
	return w.edit(func() {
		w.room = room
		if room == nil {
			w.draft.RoomID = nil
		} else {
			id := room.ID
			w.draft.RoomID = &id
		}
	}, true)
}

// SetContact edits the contact details. No price impact.
func (w *Wizard) SetContact(phone, email string) error {
	return w.edit(func() {
		w.draft.ContactPhone = phone
		w.draft.Email = email
	}, false)
}

// SetSpecialRequests edits the free-form request text. No price impact.
func (w *Wizard) SetSpecialRequests(text string) error {
	return w.edit(func() {
		w.draft.SpecialRequests = text
	}, false)
}

// AcceptTerms records the explicit terms acceptance flag
func (w *Wizard) AcceptTerms(accepted bool) error {
	return w.edit(func() {
		w.draft.TermsAccepted = accepted
	}, false)
}

// Review validates step 1 and advances Editing -> Reviewing. On validation
// failure the wizard stays in Editing with field-level errors attached and no
// network call is made.
func (w *Wizard) Review() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tornDown {
		return ErrTornDown
	}
	if w.state != StateEditing {
		return ErrInvalidTransition
	}

	errs := w.validateLocked()
	if len(errs) > 0 {
		w.fieldErrors = errs
		return ErrValidationFailed
	}

	w.fieldErrors = map[string]string{}
	w.state = StateReviewing
	return nil
}

// Back returns Reviewing -> Editing, preserving all entered data
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tornDown {
		return ErrTornDown
	}
	if w.state != StateReviewing {
		return ErrInvalidTransition
	}

	w.state = StateEditing
	return nil
}

// Submit sends the draft to the order service. Only reachable from Reviewing
// via an explicit user action. A Submit that arrives while a submission is
// already in flight does not issue a second request: it waits for and shares
// the in-flight outcome. On failure the wizard returns to Reviewing with the
// error attached and the user may retry; on success the draft is cleared and
// the navigation side effect fires exactly once.
func (w *Wizard) Submit(ctx context.Context) (*models.Order, error) {
	w.mu.Lock()

	if w.tornDown {
		w.mu.Unlock()
		return nil, ErrTornDown
	}

	if w.state == StateSubmitting {
		outcome := w.inflight
		w.mu.Unlock()
		select {
		case <-outcome.done:
			return outcome.order, outcome.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if w.state != StateReviewing {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	outcome := &submitOutcome{done: make(chan struct{})}
	w.inflight = outcome
	w.state = StateSubmitting
	w.lastErr = nil
	draft := *w.draft
	w.mu.Unlock()

	order, err := w.deps.Submitter.Submit(ctx, &draft)

	w.mu.Lock()
	w.inflight = nil

	if w.tornDown {
		// The wizard was abandoned mid-flight; discard the late result.
		w.mu.Unlock()
		outcome.err = ErrTornDown
		close(outcome.done)
		return nil, ErrTornDown
	}

	var onSuccess func(*models.Order)
	if err != nil {
		w.state = StateReviewing
		w.lastErr = err
	} else {
		w.state = StateSucceeded
		w.order = order
		w.draft = nil
		onSuccess = w.deps.OnSuccess
	}
	w.mu.Unlock()

	outcome.order = order
	outcome.err = err
	close(outcome.done)

	if onSuccess != nil && order != nil {
		onSuccess(order)
	}

	return order, err
}

// Teardown abandons the wizard (navigation away). An in-flight submission is
// not cancelled, but its late result will be discarded.
func (w *Wizard) Teardown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tornDown = true
	w.draft = nil
}

// edit applies a mutation under the Editing/Reviewing guard, optionally
// recomputing the price. Recomputation can never fire while Submitting
// because edits are rejected outside Editing/Reviewing.
func (w *Wizard) edit(mutate func(), recompute bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tornDown {
		return ErrTornDown
	}
	if w.state != StateEditing && w.state != StateReviewing {
		return ErrNotEditable
	}

	mutate()
	if recompute {
		w.recomputeLocked()
	}
	return nil
}

// recomputeLocked re-derives the draft's total from the pricing engine.
// The stored total is never hand-edited.
func (w *Wizard) recomputeLocked() {
	if w.draft == nil {
		return
	}
	w.breakdown = w.deps.Calculator.Compute(w.tour, w.date, w.room, w.draft.TravelerCount)
	w.draft.TotalPrice = w.breakdown.Total
}

// validateLocked checks the step-1 gate conditions
func (w *Wizard) validateLocked() map[string]string {
	errs := map[string]string{}

	if w.draft.TravelerCount < 1 {
		errs["traveler_count"] = "at least one traveler is required"
	}

	if _, err := w.deps.Contacts.ValidatePhone(w.draft.ContactPhone); err != nil {
		errs["contact_phone"] = err.Error()
	}

	if _, err := w.deps.Contacts.ValidateEmail(w.draft.Email); err != nil {
		errs["email"] = err.Error()
	}

	if !w.draft.TermsAccepted {
		errs["terms_accepted"] = "terms must be accepted"
	}

	if w.date != nil && !w.date.HasAvailability(w.draft.TravelerCount) {
		errs["traveler_count"] = "not enough seats left on the selected date"
	}

	if w.room != nil && !w.room.CanAccommodate(w.draft.TravelerCount) {
		errs["room_id"] = "the selected room cannot fit the party"
	}

	return errs
}
