package model

// Notification 要寄出的通知（email 形式）
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
