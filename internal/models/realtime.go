package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrMalformedEvent marks an inbound frame that does not match any client event shape.
var ErrMalformedEvent = errors.New("malformed client event")

// Event tags used on the wire in both directions.
const (
	TypeMessage  = "message"
	TypeTyping   = "typing"
	TypeDelivery = "delivery"
	TypeError    = "error"
)

// ClientEvent is one of SendMessage or Typing.
type ClientEvent interface {
	clientEvent()
}

// SendMessage asks the server to relay Text to the user To.
type SendMessage struct {
	To       string
	Text     string
	ClientID *string
}

// Typing tells To that the sender is typing.
type Typing struct {
	To string
}

func (SendMessage) clientEvent() {}
func (Typing) clientEvent()      {}

type clientEnvelope struct {
	Type     string
	To       string
	Text     *string
	ClientID *string
}

// decode fills env from the exact, case-sensitive keys of a JSON object.
// encoding/json would otherwise also accept "TYPE" or "To".
func (env *clientEnvelope) decode(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for key, dst := range map[string]any{
		"type":      &env.Type,
		"to":        &env.To,
		"text":      &env.Text,
		"client_id": &env.ClientID,
	} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

// DecodeClientEvent parses a text frame into a ClientEvent. Unknown tags,
// missing fields, miscased keys and non-UUID recipients all yield
// ErrMalformedEvent.
func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var env clientEnvelope
	if err := env.decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	to, err := uuid.Parse(env.To)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recipient %q", ErrMalformedEvent, env.To)
	}

	switch env.Type {
	case TypeMessage:
		if env.Text == nil {
			return nil, fmt.Errorf("%w: message without text", ErrMalformedEvent)
		}
		return SendMessage{To: to.String(), Text: *env.Text, ClientID: env.ClientID}, nil
	case TypeTyping:
		return Typing{To: to.String()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, env.Type)
	}
}

// ServerEvent is one of MessageEvent, DeliveryEvent or ErrorEvent.
type ServerEvent interface {
	serverEvent()
}

// MessageEvent carries a relayed message to its recipient.
type MessageEvent struct {
	From       string
	Text       string
	Original   string
	Translated bool
	ClientID   *string
}

// DeliveryEvent acknowledges a send to its author, or signals typing to a peer.
type DeliveryEvent struct {
	To       string
	Status   string
	ClientID *string
}

// ErrorEvent reports a protocol-level failure to the sender.
type ErrorEvent struct {
	Message string
}

func (MessageEvent) serverEvent()  {}
func (DeliveryEvent) serverEvent() {}
func (ErrorEvent) serverEvent()    {}

type messageFrame struct {
	Type       string  `json:"type"`
	From       string  `json:"from"`
	Text       string  `json:"text"`
	Original   string  `json:"original"`
	Translated bool    `json:"translated"`
	ClientID   *string `json:"client_id"`
}

type deliveryFrame struct {
	Type     string  `json:"type"`
	To       string  `json:"to"`
	Status   string  `json:"status"`
	ClientID *string `json:"client_id"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EncodeServerEvent renders evt as a tagged JSON frame.
func EncodeServerEvent(evt ServerEvent) ([]byte, error) {
	switch e := evt.(type) {
	case MessageEvent:
		return json.Marshal(messageFrame{
			Type:       TypeMessage,
			From:       e.From,
			Text:       e.Text,
			Original:   e.Original,
			Translated: e.Translated,
			ClientID:   e.ClientID,
		})
	case DeliveryEvent:
		return json.Marshal(deliveryFrame{Type: TypeDelivery, To: e.To, Status: e.Status, ClientID: e.ClientID})
	case ErrorEvent:
		return json.Marshal(errorFrame{Type: TypeError, Message: e.Message})
	default:
		return nil, fmt.Errorf("unsupported server event %T", evt)
	}
}
