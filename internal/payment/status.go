package payment

import (
	"encoding/json"
	"strings"
)

type Status string

const (
	StatusPaid     Status = "paid"
	StatusPending  Status = "pending"
	StatusNotPaid  Status = "not_paid"
	StatusAPIError Status = "api_error"
	StatusError    Status = "error"
)

// Policy is the table of provider codes recognised as paid or pending.
// Codes are compared case-insensitively.
type Policy struct {
	Paid    []string
	Pending []string
}

// DefaultPolicy treats operation code 3 ("created") as pending, a state
// distinct from not_paid, and only code 5 family values as paid.
var DefaultPolicy = Policy{
	Paid:    []string{"5", "success", "paid", "completed"},
	Pending: []string{"3", "created", "pending", "waiting"},
}

// Classify maps a normalised provider code onto paid, pending or not_paid.
func (p Policy) Classify(code string) Status {
	code = strings.TrimSpace(code)
	if code == "" {
		return StatusNotPaid
	}
	if containsFold(p.Paid, code) {
		return StatusPaid
	}
	if containsFold(p.Pending, code) {
		return StatusPending
	}
	return StatusNotPaid
}

// Result is the status-check response served to the payment page.
type Result struct {
	Success    bool            `json:"success"`
	Status     Status          `json:"status"`
	StatusCode string          `json:"statusCode,omitempty"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Endpoint   string          `json:"endpoint,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Evaluate turns extracted provider status into a Result.
func (p Policy) Evaluate(info Info) Result {
	status := p.Classify(info.Code)
	res := Result{
		Success:    status == StatusPaid,
		Status:     status,
		StatusCode: info.Code,
		Message:    info.Message,
		Data:       info.Data,
		Endpoint:   info.Endpoint,
	}
	if res.Message == "" {
		switch status {
		case StatusPaid:
			res.Message = "Payment successful"
		case StatusPending:
			res.Message = "Payment pending"
		default:
			res.Message = "Status: " + info.Code
		}
	}
	return res
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}
