package quote

import (
	"encoding/json"
	"net/mail"
	"strings"
)

type Contact struct {
	email string
	phone string
}

func NewContact(email, phone string) (Contact, error) {
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if email == "" && phone == "" {
		return Contact{}, ErrMissingContact
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Contact{}, ErrInvalidEmail
		}
	}
	return Contact{email: email, phone: phone}, nil
}

func (c Contact) Email() string { return c.email }
func (c Contact) Phone() string { return c.phone }

// Offer is the supplier offer the quote was priced from.
type Offer struct {
	id       string
	snapshot json.RawMessage
}

func NewOffer(id string, snapshot json.RawMessage) (Offer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Offer{}, ErrMissingOffer
	}
	if len(snapshot) == 0 {
		snapshot = json.RawMessage(`{}`)
	}
	if !json.Valid(snapshot) {
		return Offer{}, ErrInvalidSnapshot
	}
	return Offer{id: id, snapshot: snapshot}, nil
}

func (o Offer) ID() string                { return o.id }
func (o Offer) Snapshot() json.RawMessage { return o.snapshot }
