package model

import "time"

// Fragment describes a registered fragment: an HTML file spliced into a
// placeholder element identified by a CSS selector.
type Fragment struct {
	Name     string
	Path     string
	Selector string
}

// CachedFragment is a fetched fragment body cached with its HTTP validators.
type CachedFragment struct {
	ID           int64
	Key          string
	URL          string
	ETag         *string
	LastModified *string
	Body         string
	FetchedAt    time.Time
	UpdatedAt    time.Time
	FetchCount   int64
}

// FragmentPreview is the plain-text summary of a loaded fragment.
type FragmentPreview struct {
	Name      string
	Path      string
	ByteSize  int
	Excerpt   string
	FetchedAt *time.Time
}
