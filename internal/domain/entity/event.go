package entity

// AccountEvent represents one account activity event from the TON indexing
// API events endpoint.
type AccountEvent struct {
	EventID   string   `json:"event_id,omitempty"`
	Timestamp int64    `json:"timestamp"`
	LT        int64    `json:"lt"`
	Actions   []Action `json:"actions"`
}

// Action is a typed action record inside an account event. Only jetton
// transfers are inspected by the ticket rules; other action types carry an
// empty JettonTransfer payload and are ignored.
type Action struct {
	Type           string                `json:"type"`
	JettonTransfer *JettonTransferAction `json:"JettonTransfer,omitempty"`
}

// ActionTypeJettonTransfer is the action type tag for jetton transfers.
const ActionTypeJettonTransfer = "JettonTransfer"

// JettonTransferAction is the payload of a JettonTransfer action.
type JettonTransferAction struct {
	Sender *AccountRef `json:"sender,omitempty"`
	Jetton JettonInfo  `json:"jetton"`
	Amount string      `json:"amount"`
}

// JettonInfo describes the jetton involved in a transfer action.
type JettonInfo struct {
	Symbol string `json:"symbol"`
}

// SenderAddress returns the raw sender address of the action, or an empty
// string when the sender is absent.
func (a *JettonTransferAction) SenderAddress() string {
	if a == nil || a.Sender == nil {
		return ""
	}
	return a.Sender.Address
}
