package relay

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Payload is the normalized inbound body. Values stay raw so parts are
// forwarded without being re-encoded.
type Payload map[string]json.RawMessage

// NormalizeBody coerces an inbound body into a Payload. An empty body, a body
// that is not JSON, or JSON that is not an object all yield an empty Payload.
// A JSON string holding an object is unwrapped once, which covers clients
// that double-encode their body.
func NormalizeBody(raw []byte) Payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Payload{}
	}

	parsed := gjson.ParseBytes(raw)
	if parsed.Type == gjson.String {
		inner := []byte(parsed.String())
		if !gjson.ValidBytes(inner) {
			return Payload{}
		}
		raw = inner
		parsed = gjson.ParseBytes(inner)
	}
	if !parsed.IsObject() {
		return Payload{}
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return Payload{}
	}
	return payload
}

// Model returns the requested model when the caller sent it as a string.
func (p Payload) Model() string {
	v, ok := p["model"]
	if !ok {
		return ""
	}
	res := gjson.ParseBytes(v)
	if res.Type != gjson.String {
		return ""
	}
	return res.String()
}

// Parts returns the raw parts array, or nil when it is missing, not an
// array, or empty.
func (p Payload) Parts() json.RawMessage {
	v, ok := p["parts"]
	if !ok {
		return nil
	}
	res := gjson.ParseBytes(v)
	if !res.IsArray() || len(res.Array()) == 0 {
		return nil
	}
	return v
}
