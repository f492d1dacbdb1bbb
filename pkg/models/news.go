package models

import "strings"

// NewsArticle is a single search hit. Date is kept exactly as the source
// reported it.
type NewsArticle struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Normalize trims whitespace from every field.
func (a NewsArticle) Normalize() NewsArticle {
	return NewsArticle{
		Title:   strings.TrimSpace(a.Title),
		Snippet: strings.TrimSpace(a.Snippet),
		Link:    strings.TrimSpace(a.Link),
		Date:    strings.TrimSpace(a.Date),
		Source:  strings.TrimSpace(a.Source),
	}
}

// IsEmpty reports whether the article carries neither a title nor a snippet.
func (a NewsArticle) IsEmpty() bool {
	return a.Title == "" && a.Snippet == ""
}
