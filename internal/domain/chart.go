// Package domain contains the core business entities for the ChartStash chart library.
package domain

import "time"

// ChartSet represents one library directory: a bundle of chart difficulties
// sharing an audio track and cover art.
type ChartSet struct {
	ID            string    `json:"id"`
	Path          string    `json:"path"`
	Title         string    `json:"title,omitempty"`
	Artist        string    `json:"artist,omitempty"`
	Description   string    `json:"description,omitempty"` // Markdown, from online enrichment
	CoverPath     string    `json:"cover_path,omitempty"`
	CoverBlurHash string    `json:"cover_blurhash,omitempty"`
	OnlineSetID   int64     `json:"online_set_id,omitempty"`
	ScannedAt     time.Time `json:"scanned_at"`
}

// Chart represents a single playable chart file within a set.
type Chart struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Checksum string `json:"checksum,omitempty"` // MD5 of file contents; empty if the file was unreadable
	Size     int64  `json:"size"`
	ModTime  int64  `json:"mod_time"`

	// Set is the owning chart set. Every chart belongs to exactly one set;
	// a nil Set is a programming error.
	Set *ChartSet `json:"-"`
}
