package domain

import (
	"fmt"
	"strings"
)

// Address is an immutable postal address compared by value. State is the only
// optional component; everything else must be present.
type Address struct {
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
}

// NewAddress validates and normalises the address components.
func NewAddress(street, city, state, country, postalCode string) (Address, error) {
	addr := Address{
		Street:     strings.TrimSpace(street),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		Country:    strings.TrimSpace(country),
		PostalCode: strings.TrimSpace(postalCode),
	}
	switch {
	case addr.Street == "":
		return Address{}, fmt.Errorf("%w: street is required", ErrValidation)
	case addr.City == "":
		return Address{}, fmt.Errorf("%w: city is required", ErrValidation)
	case addr.Country == "":
		return Address{}, fmt.Errorf("%w: country is required", ErrValidation)
	case addr.PostalCode == "":
		return Address{}, fmt.Errorf("%w: postal code is required", ErrValidation)
	}
	return addr, nil
}

// IsZero reports whether the address carries no data at all.
func (a Address) IsZero() bool {
	return a == Address{}
}
