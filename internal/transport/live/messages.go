package live

import "encoding/json"

// Outbound message types.
const (
	TypeState     = "state"
	TypeAdMount   = "ad_mount"
	TypeAdUnmount = "ad_unmount"
	TypePresence  = "presence"
	TypeError     = "error"
)

// Inbound message types.
const (
	TypeSelect     = "select"
	TypeSubmit     = "submit"
	TypeContinue   = "continue"
	TypeViewResult = "view_result"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type submitPayload struct {
	Values map[string]string `json:"values"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type adMountPayload struct {
	Handle string `json:"handle"`
	Markup string `json:"markup"`
}

type adUnmountPayload struct {
	Handle string `json:"handle"`
}

type presencePayload struct {
	Count int `json:"count"`
}

type errorPayload struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
