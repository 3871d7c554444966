package quote

type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusTicketed        Status = "ticketed"
	StatusExpired         Status = "expired"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// allowed forward moves; anything absent is rejected
var transitions = map[Status][]Status{
	StatusAwaitingPayment: {StatusPaid, StatusExpired, StatusCancelled},
	StatusPaid:            {StatusTicketed, StatusFailed, StatusCancelled},
}

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusAwaitingPayment, StatusPaid, StatusTicketed, StatusExpired, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func NewStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelTwitter  Channel = "twitter"
	ChannelVoice    Channel = "voice"
	ChannelAPI      Channel = "api"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelWeb, ChannelWhatsApp, ChannelTwitter, ChannelVoice, ChannelAPI:
		return true
	default:
		return false
	}
}

func NewChannel(s string) (Channel, error) {
	if s == "" {
		return ChannelWeb, nil
	}
	ch := Channel(s)
	if !ch.IsValid() {
		return "", ErrInvalidChannel
	}
	return ch, nil
}
