package models

// CallbackAction type of callback action
type CallbackAction string

const (
	CallbackMarkRead CallbackAction = "mr"
	CallbackDelete   CallbackAction = "del"
)

// CallbackData structure for inline button callback
type CallbackData struct {
	Action       CallbackAction `json:"a"`
	SubmissionID int64          `json:"s"`
}
