package offer

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog exposes read-only offer lookup for the orchestrator and handlers.
type Catalog interface {
	Flights() []FlightOffer
	Hotels() []HotelOffer
	Find(kind Kind, id string) (Offer, bool)
}

// MemoryCatalog implements Catalog over immutable in-memory slices.
type MemoryCatalog struct {
	flights []FlightOffer
	hotels  []HotelOffer
}

// NewMemoryCatalog returns a catalog holding copies of the supplied offers.
func NewMemoryCatalog(flights []FlightOffer, hotels []HotelOffer) *MemoryCatalog {
	return &MemoryCatalog{
		flights: append([]FlightOffer(nil), flights...),
		hotels:  cloneHotels(hotels),
	}
}

// NewSeedCatalog returns the catalog built from Seed.
func NewSeedCatalog() *MemoryCatalog {
	return NewMemoryCatalog(Seed())
}

// Flights returns the flight offers in catalog order.
func (c *MemoryCatalog) Flights() []FlightOffer {
	return append([]FlightOffer(nil), c.flights...)
}

// Hotels returns the hotel offers in catalog order.
func (c *MemoryCatalog) Hotels() []HotelOffer {
	return cloneHotels(c.hotels)
}

// Find looks up an offer by kind and identifier. Unknown ids are reported
// with ok=false, never as a panic.
func (c *MemoryCatalog) Find(kind Kind, id string) (Offer, bool) {
	switch kind {
	case KindFlight:
		for _, f := range c.flights {
			if f.ID == id {
				return f, true
			}
		}
	case KindHotel:
		for _, h := range c.hotels {
			if h.ID == id {
				h.Amenities = append([]string(nil), h.Amenities...)
				return h, true
			}
		}
	}
	return nil, false
}

type catalogFile struct {
	Flights []FlightOffer `json:"flights"`
	Hotels  []HotelOffer  `json:"hotels"`
}

// LoadFile reads a {"flights": [...], "hotels": [...]} document.
func LoadFile(path string) (*MemoryCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offers file: %w", err)
	}

	var doc catalogFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode offers file: %w", err)
	}

	if err := validate(doc.Flights, doc.Hotels); err != nil {
		return nil, fmt.Errorf("invalid offers file %s: %w", path, err)
	}

	return NewMemoryCatalog(doc.Flights, doc.Hotels), nil
}

func validate(flights []FlightOffer, hotels []HotelOffer) error {
	seen := make(map[string]struct{}, len(flights)+len(hotels))
	for _, f := range flights {
		if f.ID == "" {
			return fmt.Errorf("flight offer without id")
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("duplicate offer id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	for _, h := range hotels {
		if h.ID == "" {
			return fmt.Errorf("hotel offer without id")
		}
		if _, dup := seen[h.ID]; dup {
			return fmt.Errorf("duplicate offer id %q", h.ID)
		}
		if h.Rating < 0 || h.Rating > 5 {
			return fmt.Errorf("hotel %q rating %.1f outside 0-5", h.ID, h.Rating)
		}
		seen[h.ID] = struct{}{}
	}
	return nil
}

func cloneHotels(in []HotelOffer) []HotelOffer {
	out := make([]HotelOffer, len(in))
	for i, h := range in {
		h.Amenities = append([]string(nil), h.Amenities...)
		out[i] = h
	}
	return out
}
