package request

import (
	"strings"

	"booking-engine/internal/domain/money"
	"booking-engine/internal/domain/quote"
	"booking-engine/internal/usecase/commands"

	"github.com/google/uuid"
)

type MoneyRequest struct {
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

func (m MoneyRequest) ToDomain() (money.Money, error) {
	return money.New(m.AmountMinor, strings.ToUpper(strings.TrimSpace(m.Currency)))
}

type PassportRequest struct {
	NumberToken string `json:"number_token"`
	Expiry      string `json:"expiry"`
	Nationality string `json:"nationality"`
}

type PassengerRequest struct {
	Type        string           `json:"type" binding:"required,oneof=adult child infant"`
	Title       string           `json:"title,omitempty"`
	FirstName   string           `json:"first" binding:"required"`
	LastName    string           `json:"last" binding:"required"`
	DateOfBirth string           `json:"dob,omitempty"`
	Passport    *PassportRequest `json:"passport,omitempty"`
}

type ContactRequest struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type BookRequest struct {
	OfferID       string             `json:"offer_id" binding:"required"`
	SearchPrice   MoneyRequest       `json:"search_price" binding:"required"`
	AcceptedPrice *MoneyRequest      `json:"accepted_price,omitempty"`
	Passengers    []PassengerRequest `json:"passengers" binding:"required,min=1,dive"`
	Contacts      ContactRequest     `json:"contacts"`
	Channel       string             `json:"channel,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
}

func (r BookRequest) ToInput() (commands.BookInput, error) {
	search, err := r.SearchPrice.ToDomain()
	if err != nil {
		return commands.BookInput{}, err
	}

	var accepted *money.Money
	if r.AcceptedPrice != nil {
		m, err := r.AcceptedPrice.ToDomain()
		if err != nil {
			return commands.BookInput{}, err
		}
		accepted = &m
	}

	passengers := make([]quote.Passenger, 0, len(r.Passengers))
	for _, p := range r.Passengers {
		passenger := quote.Passenger{
			Type:        quote.PassengerType(p.Type),
			Title:       strings.TrimSpace(p.Title),
			FirstName:   strings.TrimSpace(p.FirstName),
			LastName:    strings.TrimSpace(p.LastName),
			DateOfBirth: p.DateOfBirth,
		}
		if p.Passport != nil {
			passenger.Passport = &quote.Passport{
				NumberToken: p.Passport.NumberToken,
				Expiry:      p.Passport.Expiry,
				Nationality: p.Passport.Nationality,
			}
		}
		passengers = append(passengers, passenger)
	}

	return commands.BookInput{
		OfferID:       strings.TrimSpace(r.OfferID),
		SearchPrice:   search,
		AcceptedPrice: accepted,
		Passengers:    passengers,
		Email:         strings.TrimSpace(r.Contacts.Email),
		Phone:         strings.TrimSpace(r.Contacts.Phone),
		Channel:       strings.ToLower(strings.TrimSpace(r.Channel)),
		PaymentMethod: strings.ToLower(strings.TrimSpace(r.PaymentMethod)),
	}, nil
}

type IssueRequest struct {
	QuoteID uuid.UUID `json:"quote_id" binding:"required"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
