package ws

import (
	jsonIter "github.com/json-iterator/go"
)

type rawMessage struct {
	t    int
	data []byte
}

type eventMessage struct {
	Type string      `json:"type"`
	Body interface{} `json:"body"`
}

func makeMessage(t string, body interface{}) *eventMessage {
	return &eventMessage{
		Type: t,
		Body: body,
	}
}

func (m *eventMessage) toJSON() (b []byte) {
	b, _ = json.Marshal(m)
	return
}

// clientMessage an inbound frame; the body stays raw until the type is known
type clientMessage struct {
	Type string              `json:"type"`
	Body jsonIter.RawMessage `json:"body"`
}
