package ingestion

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// LooseString accepts any JSON scalar and keeps its textual form. Objects,
// arrays, null, false and zero decode to the empty string instead of failing
// the payload, so a falsy field falls through to the next candidate.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*s = ""
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*s = ""
			return nil
		}
		*s = LooseString(str)
	case 't':
		*s = LooseString(data)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f != 0 {
			*s = LooseString(data)
		} else {
			*s = ""
		}
	default:
		*s = ""
	}
	return nil
}

// RawItem is one entry of a provider's social or web array
type RawItem struct {
	Text        LooseString     `json:"text"`
	Title       LooseString     `json:"title"`
	Name        LooseString     `json:"name"`
	Username    LooseString     `json:"username"`
	URL         LooseString     `json:"url"`
	Date        LooseString     `json:"date"`
	Performance json.RawMessage `json:"performance,omitempty"`
}

// StructuredPayload is the provider's bulk delivery. A nil slice means the
// key was absent or null; an empty non-nil slice means an explicit [].
type StructuredPayload struct {
	Social []RawItem `json:"social"`
	Web    []RawItem `json:"web"`
}

// ConversationalPayload is a chat-integration message, either posted as JSON
// or as a form-encoded outgoing webhook.
type ConversationalPayload struct {
	Token       string `json:"token,omitempty"`
	TeamID      string `json:"team_id,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	Text        string `json:"text"`
	Timestamp   string `json:"timestamp,omitempty"`
	TriggerWord string `json:"trigger_word,omitempty"`
}

// Outcome classifies how a delivery was handled
type Outcome string

const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeMalformed Outcome = "malformed_payload" // tolerated, defaults applied
	OutcomeDiscarded Outcome = "discarded"         // content filter rejected the message
)

// DecodeStructured parses a structured payload. A body that is not a JSON
// object yields an empty payload and OutcomeMalformed rather than an error.
func DecodeStructured(body []byte) (StructuredPayload, Outcome) {
	var payload StructuredPayload
	if len(bytes.TrimSpace(body)) == 0 {
		return payload, OutcomeMalformed
	}

	if err := json.Unmarshal(body, &payload); err == nil {
		return payload, OutcomeAccepted
	}

	// Fall back to decoding each array on its own so one bad key does not
	// discard the other.
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(body, &loose); err != nil {
		return StructuredPayload{}, OutcomeMalformed
	}
	payload = StructuredPayload{
		Social: decodeItems(loose["social"]),
		Web:    decodeItems(loose["web"]),
	}
	return payload, OutcomeMalformed
}

func decodeItems(raw json.RawMessage) []RawItem {
	if len(raw) == 0 {
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil
	}

	items := make([]RawItem, 0, len(elements))
	for _, element := range elements {
		var item RawItem
		// Non-object entries still count as an item with every field defaulted
		_ = json.Unmarshal(element, &item)
		items = append(items, item)
	}
	return items
}
