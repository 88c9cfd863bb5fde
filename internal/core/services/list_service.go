package services

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/kamal-hamza/docusage/internal/core/domain"
)

// ListService fetches the document list and applies client-side filtering
// and sorting. The backend order is kept when no sort is requested.
type ListService struct {
	docs *DocumentService
}

// NewListService creates a new list service
func NewListService(docs *DocumentService) *ListService {
	return &ListService{
		docs: docs,
	}
}

// ListRequest represents a request to list documents
type ListRequest struct {
	Extension string // Filter by file extension, e.g. "pdf" (optional)
	SortBy    string // "date", "name", "size" or "" for backend order
	Reverse   bool   // Reverse sort order
	Query     string // Fuzzy filename filter (optional)
}

// ListResponse represents the response from listing documents
type ListResponse struct {
	Documents  []domain.Document
	Total      int
	TotalBytes int64
}

// Execute lists the session's documents with optional filtering and sorting
func (s *ListService) Execute(ctx context.Context, session *domain.Session, req ListRequest) (*ListResponse, error) {
	docs, err := s.docs.List(ctx, session)
	if err != nil {
		return nil, err
	}
	return Arrange(docs, req), nil
}

// Arrange applies a ListRequest to an already fetched list
func Arrange(docs []domain.Document, req ListRequest) *ListResponse {
	out := make([]domain.Document, len(docs))
	copy(out, docs)

	if req.Extension != "" {
		out = filterByExtension(out, req.Extension)
	}
	if strings.TrimSpace(req.Query) != "" {
		out = SearchDocuments(out, req.Query)
	} else {
		out = SortDocuments(out, req.SortBy, req.Reverse)
	}

	var total int64
	for _, d := range out {
		total += d.Size
	}
	return &ListResponse{
		Documents:  out,
		Total:      len(out),
		TotalBytes: total,
	}
}

func filterByExtension(docs []domain.Document, ext string) []domain.Document {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	var filtered []domain.Document
	for _, d := range docs {
		if d.Extension() == ext {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// SortDocuments sorts in place and returns docs. An empty sortBy keeps the
// backend order (reversed if asked).
func SortDocuments(docs []domain.Document, sortBy string, reverse bool) []domain.Document {
	if sortBy == "" {
		if reverse {
			for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
				docs[i], docs[j] = docs[j], docs[i]
			}
		}
		return docs
	}

	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if reverse {
			a, b = b, a
		}
		switch sortBy {
		case "name":
			return strings.ToLower(a.Filename) < strings.ToLower(b.Filename)
		case "size":
			return a.Size < b.Size
		default: // "date"
			return a.UploadedAt.Before(b.UploadedAt)
		}
	})
	return docs
}

// fuzzyMatch represents a scored match
type fuzzyMatch struct {
	doc   domain.Document
	score int
}

// SearchDocuments performs fuzzy search on filenames and paths, best first
func SearchDocuments(docs []domain.Document, query string) []domain.Document {
	query = strings.TrimSpace(query)
	if query == "" {
		return docs
	}

	var matches []fuzzyMatch
	for _, doc := range docs {
		if score := fuzzyMatchScore(doc.Filename, query); score > 0 {
			matches = append(matches, fuzzyMatch{doc: doc, score: score + 1000})
			continue
		}
		if score := fuzzyMatchScore(doc.Path, query); score > 0 {
			matches = append(matches, fuzzyMatch{doc: doc, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.Document, len(matches))
	for i, m := range matches {
		result[i] = m.doc
	}
	return result
}

// fuzzyMatchScore calculates a score for fuzzy matching query against text.
// Returns 0 if no match, higher scores for better matches.
func fuzzyMatchScore(text, query string) int {
	if text == "" || query == "" {
		return 0
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if text == query {
		return 10000
	}
	if textLower == queryLower {
		return 9000
	}
	if strings.Contains(textLower, queryLower) {
		score := 5000
		if strings.HasPrefix(textLower, queryLower) {
			score += 2000
		}
		return score
	}

	score := 0
	textRunes := []rune(textLower)
	queryRunes := []rune(queryLower)

	queryIdx := 0
	consecutive := 0
	lastMatchIdx := -1

	for textIdx := 0; textIdx < len(textRunes) && queryIdx < len(queryRunes); textIdx++ {
		if textRunes[textIdx] != queryRunes[queryIdx] {
			continue
		}
		score += 100
		if textIdx == lastMatchIdx+1 {
			consecutive++
			score += consecutive * 50
		} else {
			consecutive = 0
		}
		if textIdx == 0 || isSeparator(textRunes[textIdx-1]) {
			score += 200
		}
		lastMatchIdx = textIdx
		queryIdx++
	}

	if queryIdx != len(queryRunes) {
		return 0
	}

	// gaps cost a little
	score -= (lastMatchIdx + 1 - len(queryRunes)) * 10
	if score <= 0 {
		score = 1
	}
	return score
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == '/'
}
