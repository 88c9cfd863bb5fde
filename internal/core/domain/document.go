package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Document is the client-side view of a stored document.
// The backend owns it; the client only holds a fetched copy.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
	Path       string    `json:"path,omitempty"`
}

// UnmarshalJSON accepts numeric or string ids and the timestamp spellings
// the backend has used across versions.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Filename   string          `json:"filename"`
		Name       string          `json:"name"`
		Size       *int64          `json:"size"`
		UploadedAt string          `json:"uploaded_at"`
		CreatedAt  string          `json:"created_at"`
		Path       string          `json:"path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.ID = parseID(raw.ID)
	d.Filename = raw.Filename
	if d.Filename == "" {
		d.Filename = raw.Name
	}
	if d.Filename == "" && raw.Path != "" {
		d.Filename = filepath.Base(raw.Path)
	}
	d.Path = raw.Path
	d.Size = 0
	if raw.Size != nil {
		d.Size = *raw.Size
	}

	d.UploadedAt = time.Time{}
	stamp := raw.UploadedAt
	if stamp == "" {
		stamp = raw.CreatedAt
	}
	if stamp != "" {
		d.UploadedAt = parseTimestamp(stamp)
	}

	return nil
}

// parseID never fails.
// Object ids such as {"$oid": "..."} use their inner string; any other
// shape is kept as compact JSON.
func parseID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			for _, key := range []string{"$oid", "id"} {
				if v, ok := obj[key]; ok {
					if id := parseID(v); id != "" {
						return id
					}
				}
			}
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String()
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// parseTimestamp tolerates RFC3339 and the naive ISO format Python emits
// for datetimes without a zone. Unparseable values yield the zero time.
func parseTimestamp(s string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Extension returns the lowercase file extension without the dot
func (d Document) Extension() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Filename)), ".")
	if ext == "" {
		return "other"
	}
	return ext
}

// GetDisplayDate returns a human-readable upload date
func (d Document) GetDisplayDate(layout string) string {
	if d.UploadedAt.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = "2006-01-02"
	}
	return d.UploadedAt.Local().Format(layout)
}

// UploadFile is a file selected for upload
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// UploadResult normalizes both upload response shapes:
// {filename, path} and {message}.
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}

// Summary returns a one-line description of the result
func (r *UploadResult) Summary(fallbackName string) string {
	name := r.Filename
	if name == "" {
		name = fallbackName
	}
	switch {
	case r.Message != "" && name != "":
		return fmt.Sprintf("%s (%s)", r.Message, name)
	case r.Message != "":
		return r.Message
	default:
		return "Uploaded " + name
	}
}

// UploadStatus is the in-flight status of an upload attempt
type UploadStatus int

const (
	UploadIdle UploadStatus = iota
	UploadInProgress
	UploadSucceeded
	UploadFailed
)

func (s UploadStatus) String() string {
	switch s {
	case UploadInProgress:
		return "uploading"
	case UploadSucceeded:
		return "success"
	case UploadFailed:
		return "error"
	default:
		return "idle"
	}
}

// UploadAttempt lives for a single submit-refresh cycle
type UploadAttempt struct {
	FilePath string
	Status   UploadStatus
	Message  string
}

// Begin marks the attempt as in flight
func (a *UploadAttempt) Begin(path string) {
	a.FilePath = path
	a.Status = UploadInProgress
	a.Message = "Uploading " + filepath.Base(path) + "..."
}

// Finish records the outcome of the attempt
func (a *UploadAttempt) Finish(result *UploadResult, err error) {
	if err != nil {
		a.Status = UploadFailed
		a.Message = Message(err)
		return
	}
	a.Status = UploadSucceeded
	a.Message = result.Summary(filepath.Base(a.FilePath))
}

// InFlight reports whether an upload is outstanding
func (a *UploadAttempt) InFlight() bool {
	return a.Status == UploadInProgress
}

// Reset discards the attempt once the document list has been refreshed
func (a *UploadAttempt) Reset() {
	*a = UploadAttempt{}
}

// FormatSize renders a byte count for display
func FormatSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
