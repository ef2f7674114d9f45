package booking

import (
	"fmt"
	"strconv"

	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
)

// SelectionMessage re-expresses an offer pick as a user utterance.
func SelectionMessage(o offer.Offer) string {
	switch v := o.(type) {
	case offer.FlightOffer:
		return FlightSelectionMessage(v)
	case *offer.FlightOffer:
		return FlightSelectionMessage(*v)
	case offer.HotelOffer:
		return HotelSelectionMessage(v)
	case *offer.HotelOffer:
		return HotelSelectionMessage(*v)
	default:
		return fmt.Sprintf("I'd like to book option %s.", o.OfferID())
	}
}

func FlightSelectionMessage(f offer.FlightOffer) string {
	return fmt.Sprintf("I'd like to book this flight: %s from %s to %s on %s at %s for %s",
		f.Carrier, f.Origin, f.Destination, f.DepartDate, f.DepartTime, f.Price)
}

func HotelSelectionMessage(h offer.HotelOffer) string {
	return fmt.Sprintf("I'd like to book this hotel: %s in %s for %s per night with a rating of %s",
		h.Name, h.Location, h.Price, strconv.FormatFloat(h.Rating, 'f', -1, 64))
}

// PaymentMessage is sent once the payment form has been submitted.
func PaymentMessage() string {
	return "I've completed the payment for my booking."
}

// LanguageSwitchMessage asks the assistant to continue in lang.
func LanguageSwitchMessage(lang chat.Language) string {
	return fmt.Sprintf("Please respond in %s from now on.", lang.DisplayName())
}
