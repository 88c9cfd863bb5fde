package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// UploadField is the multipart form field the backend reads the file from
const UploadField = "file"

// ListDocuments fetches the documents owned by token. The body may be a
// bare array or an object wrapping one.
func (c *Client) ListDocuments(ctx context.Context, token string) ([]domain.Document, error) {
	r := request{
		op:     "list documents",
		method: http.MethodGet,
		path:   c.listPath,
		token:  token,
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := decode(r, data, &raw); err != nil {
		return nil, err
	}
	return decodeDocuments(r.op, raw)
}

func decodeDocuments(op string, raw json.RawMessage) ([]domain.Document, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, domain.WrapError(domain.ErrServer, op, "The server returned an unexpected response.", err)
		}
		raw = nil
		for _, key := range []string{"files", "documents", "items"} {
			if v, ok := wrapper[key]; ok {
				raw = v
				break
			}
		}
		if raw == nil {
			return nil, domain.WrapError(domain.ErrServer, op, "The server returned an unexpected response.", nil)
		}
	}

	docs := []domain.Document{}
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, domain.WrapError(domain.ErrServer, op, "The server returned an unexpected response.", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// UploadDocument streams file as a multipart form. The boundary is chosen
// by the multipart writer and carried in the request content type.
func (c *Client) UploadDocument(ctx context.Context, token string, file *domain.UploadFile) (*domain.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, file)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	r := request{
		op:          "upload",
		method:      http.MethodPost,
		path:        "/files/upload",
		token:       token,
		contentType: mw.FormDataContentType(),
		body:        pr,
	}
	data, err := c.do(ctx, r)
	// unblock the writer if the request ended before reading the whole body
	pr.Close()
	if err != nil {
		return nil, err
	}

	var out struct {
		Message  string `json:"message"`
		Filename string `json:"filename"`
		Path     string `json:"path"`
	}
	r.allowEmpty = true
	if err := decode(r, data, &out); err != nil {
		return nil, err
	}
	return &domain.UploadResult{
		Filename: out.Filename,
		Path:     out.Path,
		Message:  out.Message,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeUpload(mw *multipart.Writer, file *domain.UploadFile) error {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		UploadField, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file.Content)
	return err
}
