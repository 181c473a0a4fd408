package lsp

// MessageType is the severity of a window message.
type MessageType uint32

const (
	Error MessageType = iota + 1
	Warning
	Info
	Log
	Debug
)

// LogMessageParams asks the editor to log a message without showing it.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// ShowMessageParams asks the editor to show a message to the user.
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}
