package domain

import "time"

// UploadRecord remembers a local file that was sent to the backend, so
// unchanged files are not uploaded twice by the watcher
type UploadRecord struct {
	LocalPath  string    `json:"local_path"`
	Filename   string    `json:"filename"`    // Name the backend stored
	ServerPath string    `json:"server_path"` // Path reported by the backend, if any
	Hash       string    `json:"hash"`        // SHA-256 of the content
	Size       int64     `json:"size"`
	Account    string    `json:"account"` // Email of the session that uploaded it
	UploadedAt time.Time `json:"uploaded_at"`
}
