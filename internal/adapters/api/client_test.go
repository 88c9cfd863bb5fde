package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second), &hits
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Login(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get(requestIDHeader) == "" {
			t.Error("missing request id")
		}
		var creds domain.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if creds.Email != "user@test.com" || creds.Password != "password123" {
			t.Errorf("creds = %+v", creds)
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "abc", "token_type": "bearer"})
	})

	token, err := client.Login(context.Background(), domain.Credentials{Email: "user@test.com", Password: "password123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.AccessToken != "abc" || token.TokenType != "bearer" {
		t.Errorf("token = %+v", token)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("hits = %d", atomic.LoadInt32(hits))
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		call     func(*Client) error
		status   int
		body     string
		wantKind error
		wantMsg  string
	}{
		{
			name:     "login detail verbatim",
			call:     loginCall,
			status:   http.StatusUnauthorized,
			body:     `{"detail":"Incorrect email or password"}`,
			wantKind: domain.ErrAuthRejected,
			wantMsg:  "Incorrect email or password",
		},
		{
			name:     "register duplicate",
			call:     registerCall,
			status:   http.StatusBadRequest,
			body:     `{"detail":"Email already registered"}`,
			wantKind: domain.ErrAuthRejected,
			wantMsg:  "Email already registered",
		},
		{
			name:     "register validation list",
			call:     registerCall,
			status:   http.StatusUnprocessableEntity,
			body:     `{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"}]}`,
			wantKind: domain.ErrAuthRejected,
			wantMsg:  "email: value is not a valid email address",
		},
		{
			name:     "login without detail",
			call:     loginCall,
			status:   http.StatusForbidden,
			body:     `not json`,
			wantKind: domain.ErrAuthRejected,
			wantMsg:  "Authentication failed (403 Forbidden).",
		},
		{
			name:     "list unauthorized",
			call:     listCall,
			status:   http.StatusUnauthorized,
			body:     `{"detail":"Could not validate credentials"}`,
			wantKind: domain.ErrSessionInvalid,
			wantMsg:  "Could not validate credentials",
		},
		{
			name:     "list forbidden without body",
			call:     listCall,
			status:   http.StatusForbidden,
			wantKind: domain.ErrSessionInvalid,
			wantMsg:  "Your session has expired. Please log in again.",
		},
		{
			name:     "upload rejected type",
			call:     uploadCall,
			status:   http.StatusBadRequest,
			body:     `{"detail":"Unsupported file type: image/png. Only PDF, TXT, or DOCX are allowed."}`,
			wantKind: domain.ErrRejected,
			wantMsg:  "Unsupported file type: image/png. Only PDF, TXT, or DOCX are allowed.",
		},
		{
			name:     "server error",
			call:     listCall,
			status:   http.StatusInternalServerError,
			body:     `{"detail":"Could not save file on the server."}`,
			wantKind: domain.ErrServer,
			wantMsg:  "Could not save file on the server.",
		},
		{
			name:     "server error without detail",
			call:     loginCall,
			status:   http.StatusBadGateway,
			wantKind: domain.ErrServer,
			wantMsg:  "The server encountered an error (502 Bad Gateway). Please try again later.",
		},
		{
			name:     "malformed success body",
			call:     loginCall,
			status:   http.StatusOK,
			body:     `<html>`,
			wantKind: domain.ErrTransport,
		},
		{
			name:     "wrong shape success body",
			call:     listCall,
			status:   http.StatusOK,
			body:     `{"unexpected": true}`,
			wantKind: domain.ErrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			err := tt.call(client)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("expected %v, got %v", tt.wantKind, err)
			}
			if tt.wantMsg != "" && domain.Message(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", domain.Message(err), tt.wantMsg)
			}
			if atomic.LoadInt32(hits) != 1 {
				t.Errorf("expected exactly one request, got %d", atomic.LoadInt32(hits))
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(url, time.Second)
	err := loginCall(client)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.Is(err, domain.ErrAuthRejected) {
		t.Error("transport failure must be distinguishable from rejection")
	}
	if !strings.Contains(domain.Message(err), url) {
		t.Errorf("message should name the server: %q", domain.Message(err))
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := New(srv.URL, 50*time.Millisecond)
	err := loginCall(client)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if domain.Message(err) != "The server took too long to respond." {
		t.Errorf("message = %q", domain.Message(err))
	}
}

func TestClient_RegisterEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	if err := registerCall(client); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_ListDocuments(t *testing.T) {
	tests := []struct {
		name     string
		listPath string
		body     string
		want     []string
	}{
		{"bare array", "", `[{"id":1,"filename":"report.pdf","size":10}]`, []string{"report.pdf"}},
		{"wrapped", "/files/list", `{"files":[{"id":"a","filename":"x.txt"},{"id":"b","filename":"y.txt"}]}`, []string{"x.txt", "y.txt"}},
		{"empty", "", `[]`, []string{}},
		{"odd id keeps the other rows", "", `[{"id":{"k":1},"filename":"odd.pdf"},{"id":2,"filename":"b.txt"}]`, []string{"odd.pdf", "b.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantPath := tt.listPath
			if wantPath == "" {
				wantPath = DefaultListPath
			}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != wantPath {
					t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("authorization = %q", got)
				}
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := New(srv.URL, time.Second, WithListPath(tt.listPath))
			docs, err := client.ListDocuments(context.Background(), "tok")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if docs == nil {
				t.Fatal("docs should never be nil")
			}
			if len(docs) != len(tt.want) {
				t.Fatalf("got %d docs, want %d", len(docs), len(tt.want))
			}
			for i, name := range tt.want {
				if docs[i].Filename != name {
					t.Errorf("docs[%d] = %q, want %q", i, docs[i].Filename, name)
				}
			}
		})
	}
}

func TestClient_UploadDocument(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     domain.UploadResult
	}{
		{
			name:     "full response",
			response: `{"message":"File uploaded successfully","filename":"report.pdf","path":"user_uploads/1/report.pdf","user_id":1}`,
			want:     domain.UploadResult{Message: "File uploaded successfully", Filename: "report.pdf", Path: "user_uploads/1/report.pdf"},
		},
		{
			name:     "message only",
			response: `{"message":"ok"}`,
			want:     domain.UploadResult{Message: "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/files/upload" {
					t.Errorf("path = %q", r.URL.Path)
				}
				if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
					t.Errorf("content type = %q", r.Header.Get("Content-Type"))
				}
				f, header, err := r.FormFile(UploadField)
				if err != nil {
					t.Errorf("form file: %v", err)
					http.Error(w, "bad form", http.StatusBadRequest)
					return
				}
				defer f.Close()
				data, _ := io.ReadAll(f)
				if string(data) != "%PDF-1.4" {
					t.Errorf("content = %q", data)
				}
				if header.Filename != "report.pdf" {
					t.Errorf("filename = %q", header.Filename)
				}
				if ct := header.Header.Get("Content-Type"); ct != "application/pdf" {
					t.Errorf("part content type = %q", ct)
				}
				_, _ = io.WriteString(w, tt.response)
			})

			result, err := client.UploadDocument(context.Background(), "tok", &domain.UploadFile{
				Name:        "report.pdf",
				Size:        8,
				ContentType: "application/pdf",
				Content:     strings.NewReader("%PDF-1.4"),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *result != tt.want {
				t.Errorf("result = %+v, want %+v", *result, tt.want)
			}
		})
	}
}

func TestClient_MeAndPing(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			writeJSON(w, http.StatusOK, map[string]string{"email": "user@test.com"})
		case "/":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	email, err := client.Me(context.Background(), "tok")
	if err != nil || email != "user@test.com" {
		t.Errorf("Me = %q, %v", email, err)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestWithListPath(t *testing.T) {
	tests := map[string]string{
		"":           DefaultListPath,
		"files/list": "/files/list",
		" /docs ":    "/docs",
	}
	for in, want := range tests {
		if got := New("http://x", time.Second, WithListPath(in)).listPath; got != want {
			t.Errorf("WithListPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func loginCall(c *Client) error {
	_, err := c.Login(context.Background(), domain.Credentials{Email: "user@test.com", Password: "password123"})
	return err
}

func registerCall(c *Client) error {
	_, err := c.Register(context.Background(), domain.Credentials{Email: "user@test.com", Password: "password123"})
	return err
}

func listCall(c *Client) error {
	_, err := c.ListDocuments(context.Background(), "tok")
	return err
}

func uploadCall(c *Client) error {
	_, err := c.UploadDocument(context.Background(), "tok", &domain.UploadFile{
		Name:    "a.png",
		Content: strings.NewReader("png"),
	})
	return err
}
