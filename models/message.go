package models

// Message is one chat entry as the message backend stores and returns it.
type Message struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}
