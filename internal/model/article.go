package model

import "strings"

// Geography holds the location entities extracted from an article.
type Geography struct {
	Country string `json:"country,omitempty"`
	Region  string `json:"region,omitempty"`
	City    string `json:"city,omitempty"`
}

// IsZero reports whether no location entity was extracted.
func (g Geography) IsZero() bool {
	return g.Country == "" && g.Region == "" && g.City == ""
}

// Entities holds the classified entities of an article.
type Entities struct {
	Geography     Geography `json:"geography"`
	DisasterType  string    `json:"disaster_type,omitempty"`
	AffectedGroup string    `json:"affected_group,omitempty"`
}

// ArticleContext is the classified article a recommendation run is computed for.
// It is produced upstream and treated as immutable by the pipeline.
type ArticleContext struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`
	URL         string   `json:"url,omitempty"`
	Entities    Entities `json:"entities"`
	Causes      []string `json:"causes,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Text joins the article's free-text fields for keyword inference.
func (a ArticleContext) Text() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{a.Title, a.Description, a.Content} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// IsEmpty reports whether the article carries no text at all.
func (a ArticleContext) IsEmpty() bool {
	return a.Text() == ""
}
