package services

import (
	"context"
	"testing"
	"time"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

func sampleDocuments() []domain.Document {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Document{
		{ID: "1", Filename: "report.pdf", Size: 3000, UploadedAt: base.Add(2 * time.Hour)},
		{ID: "2", Filename: "Budget.docx", Size: 1000, UploadedAt: base},
		{ID: "3", Filename: "notes.txt", Size: 2000, UploadedAt: base.Add(time.Hour)},
	}
}

func ids(docs []domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestArrange(t *testing.T) {
	tests := []struct {
		name      string
		request   ListRequest
		wantIDs   []string
		wantBytes int64
	}{
		{"backend order", ListRequest{}, []string{"1", "2", "3"}, 6000},
		{"backend order reversed", ListRequest{Reverse: true}, []string{"3", "2", "1"}, 6000},
		{"by date", ListRequest{SortBy: "date"}, []string{"2", "3", "1"}, 6000},
		{"by date reversed", ListRequest{SortBy: "date", Reverse: true}, []string{"1", "3", "2"}, 6000},
		{"by name is case insensitive", ListRequest{SortBy: "name"}, []string{"2", "3", "1"}, 6000},
		{"by size", ListRequest{SortBy: "size"}, []string{"2", "3", "1"}, 6000},
		{"extension filter", ListRequest{Extension: ".PDF"}, []string{"1"}, 3000},
		{"extension filter no match", ListRequest{Extension: "png"}, []string{}, 0},
		{"query", ListRequest{Query: "notes"}, []string{"3"}, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Arrange(sampleDocuments(), tt.request)
			if got := ids(resp.Documents); !equalIDs(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if resp.Total != len(tt.wantIDs) {
				t.Errorf("total = %d, want %d", resp.Total, len(tt.wantIDs))
			}
			if resp.TotalBytes != tt.wantBytes {
				t.Errorf("total bytes = %d, want %d", resp.TotalBytes, tt.wantBytes)
			}
		})
	}
}

func TestArrange_DoesNotMutateInput(t *testing.T) {
	docs := sampleDocuments()
	Arrange(docs, ListRequest{SortBy: "name"})
	if got := ids(docs); !equalIDs(got, []string{"1", "2", "3"}) {
		t.Errorf("input reordered: %v", got)
	}
}

func TestSearchDocuments(t *testing.T) {
	docs := sampleDocuments()

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"empty query keeps all", "  ", []string{"1", "2", "3"}},
		{"prefix beats fuzzy", "re", []string{"1"}},
		{"fuzzy characters", "bdg", []string{"2"}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(SearchDocuments(docs, tt.query))
			if !equalIDs(got, tt.wantIDs) {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestFuzzyMatchScore(t *testing.T) {
	tests := []struct {
		text  string
		query string
		zero  bool
	}{
		{"report.pdf", "report.pdf", false},
		{"report.pdf", "REPORT", false},
		{"quarterly-report.pdf", "qrp", false},
		{"report.pdf", "xyz", true},
		{"", "a", true},
		{"a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.query, func(t *testing.T) {
			score := fuzzyMatchScore(tt.text, tt.query)
			if tt.zero && score != 0 {
				t.Errorf("expected 0, got %d", score)
			}
			if !tt.zero && score <= 0 {
				t.Errorf("expected positive score, got %d", score)
			}
		})
	}

	if fuzzyMatchScore("report.pdf", "report.pdf") <= fuzzyMatchScore("report.pdf", "rep") {
		t.Error("exact match should outrank prefix match")
	}
}

func TestListService_Execute(t *testing.T) {
	stack := newTestStack()
	ctx := context.Background()
	token := stack.backend.IssueToken("user@test.com")
	session := &domain.Session{Token: token}

	for _, name := range []string{"b.pdf", "a.txt"} {
		if _, err := stack.docs.Upload(ctx, session, textFile(name, "data")); err != nil {
			t.Fatalf("upload %s: %v", name, err)
		}
	}

	resp, err := NewListService(stack.docs).Execute(ctx, session, ListRequest{SortBy: "name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Total != 2 || resp.Documents[0].Filename != "a.txt" {
		t.Errorf("unexpected response: %+v", resp)
	}

	if _, err := NewListService(stack.docs).Execute(ctx, nil, ListRequest{}); err == nil {
		t.Error("expected error without session")
	}
}
