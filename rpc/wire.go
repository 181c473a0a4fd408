package rpc

import (
	"encoding/json"
	"strconv"
)

const version = "2.0"

// ID identifies a Call and the Response to it. The zero value is the
// number 0.
type ID struct {
	name   string
	number int64
}

// NewIntID returns a new numerical request ID.
func NewIntID(v int64) ID { return ID{number: v} }

// NewStringID returns a new string request ID.
func NewStringID(v string) ID { return ID{name: v} }

func (id ID) String() string {
	if id.name == "" {
		return "#" + strconv.FormatInt(id.number, 10)
	}
	return strconv.Quote(id.name)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.name == "" {
		return json.Marshal(id.number)
	}
	return json.Marshal(id.name)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &id.name)
	}
	return json.Unmarshal(data, &id.number)
}

// envelope is the JSON object every message travels in. Which fields are
// set tells the message kind apart: a method and an id make a Call, a method
// alone a Notification, and an id alone a Response.
type envelope struct {
	Version string           `json:"jsonrpc"`
	Method  string           `json:"method,omitempty"`
	Params  *json.RawMessage `json:"params,omitempty"`
	ID      *ID              `json:"id,omitempty"`
	Result  *json.RawMessage `json:"result,omitempty"`
	Error   *Error           `json:"error,omitempty"`
}
