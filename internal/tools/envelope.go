package tools

import (
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/thebtf/hogmind/internal/privacy"
)

// Response is the envelope every tool call returns.
// A failed response never carries Data.
type Response struct {
	Data    any
	Error   string
	Message string
	Success bool
}

// OK wraps a successful result. Data may be nil.
func OK(data any, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// Fail wraps err as a failed result with credentials redacted from the message.
func Fail(err error) Response {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if privacy.ContainsSecrets(msg) {
		log.Warn().Msg("Redacted credentials from tool error")
		msg = privacy.RedactSecrets(msg)
	}
	return Response{Error: msg}
}

type successJSON struct {
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

type failureJSON struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// MarshalJSON keeps "data" present, possibly null, on success and absent on failure.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successJSON{Success: true, Data: r.Data, Message: r.Message})
	}
	return json.Marshal(failureJSON{Error: r.Error, Message: r.Message})
}

// UnmarshalJSON decodes an envelope; used by clients and tests.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		Data    any    `json:"data"`
		Error   string `json:"error"`
		Message string `json:"message"`
		Success bool   `json:"success"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Response{Success: raw.Success, Data: raw.Data, Error: raw.Error, Message: raw.Message}
	return nil
}
