package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrOperationNotFound = errors.New("operation not found in search results")

// Info is the status read out of one provider (or callback) payload.
type Info struct {
	Code     string
	Message  string
	Data     json.RawMessage
	Endpoint string
}

// ExtractStatus reads the status code and message from a provider payload.
// The provider answers in three shapes:
//
//	{"results": [{"operation_id": .., "status": ..}, ...]}   search
//	{"results": {"operation_status_code": .., ...}}          wrapped
//	{"operation_status_code": .., "status": ..}              direct
func ExtractStatus(body []byte, operationID string) (Info, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return Info{}, fmt.Errorf("decode status payload: %w", err)
	}

	results, ok := doc["results"]
	results = bytes.TrimSpace(results)
	switch {
	case ok && len(results) > 0 && results[0] == '[':
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(results, &list); err != nil {
			return Info{}, fmt.Errorf("decode search results: %w", err)
		}
		for i, op := range list {
			if scalar(op["operation_id"]) != operationID && scalar(op["id"]) != operationID {
				continue
			}
			raw, _ := json.Marshal(list[i])
			return Info{
				Code:    firstScalar(op, "status", "operation_status"),
				Message: firstScalar(op, "status_msg", "message"),
				Data:    raw,
			}, nil
		}
		return Info{}, ErrOperationNotFound
	case ok && len(results) > 0 && results[0] == '{':
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(results, &inner); err != nil {
			return Info{}, fmt.Errorf("decode results: %w", err)
		}
		return Info{
			Code:    firstScalar(inner, "operation_status_code", "status_code"),
			Message: firstScalar(inner, "operation_status_msg", "status_msg"),
			Data:    json.RawMessage(results),
		}, nil
	default:
		return Info{
			Code:    firstScalar(doc, "operation_status_code", "status_code", "status"),
			Message: firstScalar(doc, "operation_status_msg", "status_msg", "message"),
			Data:    json.RawMessage(bytes.TrimSpace(body)),
		}, nil
	}
}

func firstScalar(doc map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		if v := scalar(doc[key]); v != "" {
			return v
		}
	}
	return ""
}

// scalar renders a JSON string, number or bool as text. Objects, arrays and
// null yield "".
func scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '{', '[', 'n':
		return ""
	case 't', 'f':
		return string(raw)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}
