package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

const (
	requestIDHeader = "X-Request-Id"
	maxResponseSize = 8 << 20
)

type request struct {
	op          string
	method      string
	path        string
	token       string
	contentType string
	body        io.Reader

	// authCall marks login/register, where any 4xx is a credential rejection
	authCall bool
	// allowEmpty accepts a 2xx response without a body
	allowEmpty bool
}

// send marshals payload as JSON (if any) and performs r
func (c *Client) send(ctx context.Context, r request, payload any, out any) error {
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return domain.WrapError(domain.ErrValidation, r.op, "Could not encode the request.", err)
		}
		r.body = bytes.NewReader(body)
		r.contentType = "application/json"
	}
	data, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	return decode(r, data, out)
}

// do performs the request and returns the body of a 2xx response.
// Every other outcome is converted into a domain error.
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTransport, r.op, "Invalid server address: "+c.baseURL, err)
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	logger := c.logger.With(
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return nil, domain.WrapError(domain.ErrTransport, r.op, transportMessage(ctx, c.baseURL, err), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		logger.Warn("reading response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, domain.WrapError(domain.ErrTransport, r.op, "The connection was interrupted while reading the response.", err)
	}

	logger.Info("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(data)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(r, resp.StatusCode, data)
	}
	return data, nil
}

// decode fills out from a 2xx body. Bytes that are not JSON at all are a
// transport problem; JSON of the wrong shape is a server problem.
func decode(r request, data []byte, out any) error {
	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		if r.allowEmpty {
			return nil
		}
		return domain.WrapError(domain.ErrServer, r.op, "The server returned an empty response.", nil)
	}
	if !json.Valid(data) {
		return domain.WrapError(domain.ErrTransport, r.op, "The server sent a malformed response.", nil)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.WrapError(domain.ErrServer, r.op, "The server returned an unexpected response.", err)
	}
	return nil
}

// statusError classifies a non-2xx response
func statusError(r request, status int, body []byte) error {
	var kind error
	switch {
	case status >= 500 || status < 400:
		kind = domain.ErrServer
	case r.authCall:
		kind = domain.ErrAuthRejected
	case r.token != "" && (status == http.StatusUnauthorized || status == http.StatusForbidden):
		kind = domain.ErrSessionInvalid
	default:
		kind = domain.ErrRejected
	}

	msg := extractDetail(body)
	if msg == "" {
		msg = genericMessage(kind, status)
	}

	return &domain.Error{
		Kind:    kind,
		Op:      r.op,
		Status:  status,
		Message: msg,
	}
}

// extractDetail reads the backend's {"detail": ...} payload. A string is
// returned verbatim; a validation list is flattened to its messages.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg == "" {
				continue
			}
			if field := lastLoc(item.Loc); field != "" {
				msgs = append(msgs, field+": "+item.Msg)
			} else {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" {
		return s
	}
	return ""
}

func genericMessage(kind error, status int) string {
	text := http.StatusText(status)
	if text == "" {
		text = "Unknown status"
	}
	switch kind {
	case domain.ErrAuthRejected:
		return fmt.Sprintf("Authentication failed (%d %s).", status, text)
	case domain.ErrSessionInvalid:
		return "Your session has expired. Please log in again."
	case domain.ErrServer:
		return fmt.Sprintf("The server encountered an error (%d %s). Please try again later.", status, text)
	default:
		return fmt.Sprintf("The request was rejected (%d %s).", status, text)
	}
}

func transportMessage(ctx context.Context, baseURL string, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "The request was cancelled."
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "The server took too long to respond."
	}
	return fmt.Sprintf("Could not connect to the server at %s. Check that it is running.", baseURL)
}
