package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyTransitionTable(t *testing.T) {
	from := State{Stage: StageDetails, Options: OptionsHotels}

	tests := []struct {
		signal Signal
		want   State
	}{
		{SignalFlightsOffered, State{Stage: StageSelecting, Options: OptionsFlights}},
		{SignalHotelsOffered, State{Stage: StageSelecting, Options: OptionsHotels}},
		{SignalPaymentRequested, State{Stage: StagePayment, Options: OptionsPayment}},
		{SignalBookingConfirmable, State{Stage: StageDetails, Options: OptionsHotels}},
		{SignalBookingCompleted, State{Stage: StageConfirmed, Options: OptionsNone}},
		{SignalNone, from},
	}

	for _, tt := range tests {
		t.Run(string(tt.signal), func(t *testing.T) {
			assert.Equal(t, tt.want, from.Apply(tt.signal))
		})
	}
}

func TestInitialFlightsOffered(t *testing.T) {
	got := Initial().Apply(SignalFlightsOffered)
	assert.Equal(t, StageSelecting, got.Stage)
	assert.Equal(t, OptionsFlights, got.Options)
}

func TestSignalsIgnoreCurrentStage(t *testing.T) {
	stages := []Stage{StageInitial, StageSearching, StageSelecting, StageDetails, StagePayment}
	for _, stage := range stages {
		got := State{Stage: stage, Options: OptionsNone}.Apply(SignalHotelsOffered)
		assert.Equal(t, State{Stage: StageSelecting, Options: OptionsHotels}, got, "from %s", stage)
	}
}

func TestConfirmedIsTerminal(t *testing.T) {
	stages := []Stage{StageInitial, StageSearching, StageSelecting, StageDetails, StagePayment}
	for _, stage := range stages {
		done := State{Stage: stage, Options: OptionsPayment}.Apply(SignalBookingCompleted)
		assert.Equal(t, State{Stage: StageConfirmed, Options: OptionsNone}, done)

		for _, sig := range []Signal{SignalFlightsOffered, SignalHotelsOffered, SignalPaymentRequested, SignalBookingConfirmable, SignalNone} {
			assert.Equal(t, StageConfirmed, done.Apply(sig).Stage, "signal %s", sig)
		}
		assert.Equal(t, StageConfirmed, done.OfferSelected().Stage)
	}
}

func TestClearOptionsKeepsStage(t *testing.T) {
	s := State{Stage: StageSelecting, Options: OptionsFlights}.ClearOptions()
	assert.Equal(t, State{Stage: StageSelecting, Options: OptionsNone}, s)

	reopened := s.Apply(SignalFlightsOffered)
	assert.Equal(t, OptionsFlights, reopened.Options)
}

func TestOfferSelectedAndPayment(t *testing.T) {
	s := State{Stage: StageSelecting, Options: OptionsFlights}.OfferSelected()
	assert.Equal(t, State{Stage: StageDetails, Options: OptionsNone}, s)
	assert.False(t, s.AwaitingPayment())

	s = s.Apply(SignalPaymentRequested)
	assert.True(t, s.AwaitingPayment())
	assert.Equal(t, State{Stage: StageConfirmed, Options: OptionsNone}, s.PaymentCompleted())
}
