package domain

import "time"

// Message is a transient inbox record fetched from the mail provider.
// It is never persisted; only its ID survives in the dedup ledger.
type Message struct {
	ID          string       `json:"id"`
	From        Address      `json:"from"`
	Subject     string       `json:"subject"`
	Intro       string       `json:"intro"`
	Text        string       `json:"text"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Address is a mail sender or recipient.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Attachment describes a downloadable file carried by a message.
type Attachment struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}
