package entity

// RawTransaction represents a transaction record returned by the TON
// indexing API for the monitored jetton wallet account.
type RawTransaction struct {
	Utime int64           `json:"utime"`
	LT    int64           `json:"lt"`
	Hash  string          `json:"hash"`
	InMsg *InboundMessage `json:"in_msg,omitempty"`
}

// InboundMessage is the decoded inbound message attached to a transaction.
// Every nested field is optional on the wire; accessors below return
// documented defaults when a field is absent.
type InboundMessage struct {
	Source      *AccountRef  `json:"source,omitempty"`
	DecodedBody *DecodedBody `json:"decoded_body,omitempty"`
}

// DecodedBody carries the decoded jetton transfer notification payload.
// Amount is kept as the raw string in smallest units to avoid float loss.
type DecodedBody struct {
	Sender         string          `json:"sender,omitempty"`
	Amount         string          `json:"amount,omitempty"`
	ForwardPayload *ForwardPayload `json:"forward_payload,omitempty"`
}

// ForwardPayload wraps the doubly-nested payload value the API emits for
// text comments.
type ForwardPayload struct {
	Value *PayloadValue `json:"value,omitempty"`
}

// PayloadValue is the middle layer of the forward payload nesting.
type PayloadValue struct {
	Value *PayloadText `json:"value,omitempty"`
}

// PayloadText holds the free-text comment of a transfer.
type PayloadText struct {
	Text string `json:"text,omitempty"`
}

// AccountRef references an account by its raw chain address.
type AccountRef struct {
	Address string `json:"address"`
}

// SourceAddress returns the raw source address of the inbound message, or
// an empty string when the source is absent.
func (m *InboundMessage) SourceAddress() string {
	if m == nil || m.Source == nil {
		return ""
	}
	return m.Source.Address
}

// Sender returns the decoded sender address, or an empty string when the
// body was not decoded.
func (m *InboundMessage) Sender() string {
	if m == nil || m.DecodedBody == nil {
		return ""
	}
	return m.DecodedBody.Sender
}

// Amount returns the raw transfer amount in smallest units, or "0" when
// absent.
func (m *InboundMessage) Amount() string {
	if m == nil || m.DecodedBody == nil || m.DecodedBody.Amount == "" {
		return "0"
	}
	return m.DecodedBody.Amount
}

// Comment returns the free-text comment of the transfer. A missing or
// malformed payload yields an empty string, never an error.
func (m *InboundMessage) Comment() string {
	if m == nil || m.DecodedBody == nil {
		return ""
	}
	fp := m.DecodedBody.ForwardPayload
	if fp == nil || fp.Value == nil || fp.Value.Value == nil {
		return ""
	}
	return fp.Value.Value.Text
}
