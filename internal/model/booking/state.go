package booking

// Stage is the current phase of the booking workflow.
type Stage string

const (
	StageInitial   Stage = "initial"
	StageSearching Stage = "searching"
	StageSelecting Stage = "selecting"
	StageDetails   Stage = "details"
	StagePayment   Stage = "payment"
	StageConfirmed Stage = "confirmed"
)

// OptionSet names the structured widget shown next to the chat.
type OptionSet string

const (
	OptionsNone    OptionSet = "none"
	OptionsFlights OptionSet = "flights"
	OptionsHotels  OptionSet = "hotels"
	OptionsPayment OptionSet = "payment"
)

// Signal summarizes what an assistant reply implies for flow control.
type Signal string

const (
	SignalNone               Signal = "none"
	SignalFlightsOffered     Signal = "flights-offered"
	SignalHotelsOffered      Signal = "hotels-offered"
	SignalPaymentRequested   Signal = "payment-requested"
	SignalBookingConfirmable Signal = "booking-confirmable"
	SignalBookingCompleted   Signal = "booking-completed"
)

// State is the booking stage together with the active option set. It is a
// value type: every transition returns a new State.
type State struct {
	Stage   Stage     `json:"stage"`
	Options OptionSet `json:"options"`
}

// Initial is the state of a fresh session.
func Initial() State {
	return State{Stage: StageInitial, Options: OptionsNone}
}

// Confirmed reports whether the terminal stage has been reached.
func (s State) Confirmed() bool {
	return s.Stage == StageConfirmed
}

// Apply transitions on a classifier signal. Transitions depend on the signal
// only, except that the confirmed stage absorbs every signal.
func (s State) Apply(sig Signal) State {
	if s.Confirmed() {
		return s
	}

	switch sig {
	case SignalFlightsOffered:
		return State{Stage: StageSelecting, Options: OptionsFlights}
	case SignalHotelsOffered:
		return State{Stage: StageSelecting, Options: OptionsHotels}
	case SignalPaymentRequested:
		return State{Stage: StagePayment, Options: OptionsPayment}
	case SignalBookingConfirmable:
		return State{Stage: StageDetails, Options: s.Options}
	case SignalBookingCompleted:
		return State{Stage: StageConfirmed, Options: OptionsNone}
	default:
		return s
	}
}

// ClearOptions hides the active widget. Every outbound user message goes
// through here before the next reply is classified.
func (s State) ClearOptions() State {
	s.Options = OptionsNone
	return s
}

// OfferSelected moves to the details stage after the user picked an offer.
func (s State) OfferSelected() State {
	s.Options = OptionsNone
	if !s.Confirmed() {
		s.Stage = StageDetails
	}
	return s
}

// PaymentCompleted moves to the terminal stage.
func (s State) PaymentCompleted() State {
	return State{Stage: StageConfirmed, Options: OptionsNone}
}

// AwaitingPayment reports whether the payment form may be submitted.
func (s State) AwaitingPayment() bool {
	return s.Stage == StagePayment
}
