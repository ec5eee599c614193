package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Callback is a provider webhook body. The provider does not sign callbacks,
// so nothing in it is trusted beyond correlation.
type Callback struct {
	OperationID string
	Raw         json.RawMessage
}

// ParseCallback decodes a webhook body. An empty body is an empty object.
// Valid JSON that is not an object is kept as Raw with no operation id.
func ParseCallback(body []byte) (Callback, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Callback{Raw: json.RawMessage("{}")}, nil
	}
	if !json.Valid(body) {
		return Callback{}, fmt.Errorf("decode callback: invalid json")
	}
	cb := Callback{Raw: json.RawMessage(body)}
	if body[0] != '{' {
		return cb, nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Callback{}, fmt.Errorf("decode callback: %w", err)
	}
	cb.OperationID = firstScalar(doc, "operation_id", "id")
	return cb, nil
}
