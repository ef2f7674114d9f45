package offer

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the two offer families.
type Kind string

const (
	KindFlight Kind = "flight"
	KindHotel  Kind = "hotel"
)

// ParseKind accepts singular and plural spellings ("flight", "flights").
func ParseKind(raw string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "s") {
	case string(KindFlight):
		return KindFlight, nil
	case string(KindHotel):
		return KindHotel, nil
	default:
		return "", fmt.Errorf("unknown offer kind %q", raw)
	}
}

// Money is a whole-unit currency amount.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// INR builds a rupee amount.
func INR(amount int64) Money {
	return Money{Amount: amount, Currency: "INR"}
}

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
}

func (m Money) String() string {
	if symbol, ok := currencySymbols[m.Currency]; ok {
		return symbol + strconv.FormatInt(m.Amount, 10)
	}
	return strconv.FormatInt(m.Amount, 10) + " " + m.Currency
}

// Offer is a selectable catalog entry.
type Offer interface {
	OfferID() string
	OfferKind() Kind
}

// FlightOffer is a bookable flight.
type FlightOffer struct {
	ID          string `json:"id"`
	Carrier     string `json:"carrier"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"departDate"`
	DepartTime  string `json:"departTime"`
	ArriveTime  string `json:"arriveTime"`
	Price       Money  `json:"price"`
	Duration    string `json:"duration"`
}

func (f FlightOffer) OfferID() string { return f.ID }
func (f FlightOffer) OfferKind() Kind { return KindFlight }

// HotelOffer is a bookable stay priced per night.
type HotelOffer struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Location  string   `json:"location"`
	Price     Money    `json:"price"`
	Rating    float64  `json:"rating"`
	Amenities []string `json:"amenities"`
}

func (h HotelOffer) OfferID() string { return h.ID }
func (h HotelOffer) OfferKind() Kind { return KindHotel }

// Seed provides the built-in offers shown by the booking widgets.
func Seed() ([]FlightOffer, []HotelOffer) {
	flights := []FlightOffer{
		{
			ID:          "f1",
			Carrier:     "IndiGo",
			Origin:      "Delhi",
			Destination: "Manali",
			DepartDate:  "2025-05-15",
			DepartTime:  "06:30",
			ArriveTime:  "08:00",
			Price:       INR(4500),
			Duration:    "1h 30m",
		},
		{
			ID:          "f2",
			Carrier:     "Air India",
			Origin:      "Delhi",
			Destination: "Manali",
			DepartDate:  "2025-05-15",
			DepartTime:  "10:15",
			ArriveTime:  "11:45",
			Price:       INR(5200),
			Duration:    "1h 30m",
		},
	}

	hotels := []HotelOffer{
		{
			ID:        "h1",
			Name:      "Mountain View Resort",
			Location:  "Manali",
			Price:     INR(2800),
			Rating:    4.5,
			Amenities: []string{"Free WiFi", "Breakfast", "Mountain View"},
		},
		{
			ID:        "h2",
			Name:      "Riverside Retreat",
			Location:  "Manali",
			Price:     INR(1950),
			Rating:    4.2,
			Amenities: []string{"Free WiFi", "Restaurant", "River View"},
		},
	}

	return flights, hotels
}
