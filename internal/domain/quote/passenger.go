package quote

import "strings"

type PassengerType string

const (
	PassengerAdult  PassengerType = "adult"
	PassengerChild  PassengerType = "child"
	PassengerInfant PassengerType = "infant"
)

type Passport struct {
	NumberToken string `json:"number_token"`
	Expiry      string `json:"expiry"`
	Nationality string `json:"nationality"`
}

// Passenger is stored as part of the quote and replayed to the supplier at issuance.
type Passenger struct {
	Type        PassengerType `json:"type"`
	Title       string        `json:"title,omitempty"`
	FirstName   string        `json:"first"`
	LastName    string        `json:"last"`
	DateOfBirth string        `json:"dob,omitempty"`
	Passport    *Passport     `json:"passport,omitempty"`
}

func (p Passenger) Validate() error {
	switch p.Type {
	case PassengerAdult, PassengerChild, PassengerInfant:
	default:
		return ErrInvalidPassenger
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return ErrInvalidPassenger
	}
	return nil
}

func validatePassengers(ps []Passenger) error {
	if len(ps) == 0 {
		return ErrNoPassengers
	}
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
