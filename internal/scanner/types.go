package scanner

import "time"

// ScanResult summarizes one scan run.
type ScanResult struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	SetsFound   int
	ChartsFound int
	Added       int
	Removed     int
	Errors      int
}

// SetData is a chart-set directory discovered during a scan, before it is
// persisted to the catalog.
type SetData struct {
	Path      string
	RelPath   string
	Title     string
	Artist    string
	AudioPath string
	CoverPath string
	BlurHash  string
	Charts    []ChartFileData
}

// ChartFileData is a single .chart file within a set directory.
type ChartFileData struct {
	Path     string
	RelPath  string
	Filename string
	Checksum string // MD5 hex; empty when the file could not be read
	Size     int64
	ModTime  int64
}

// Progress tracks scan progress for callers that want live updates.
type Progress struct {
	Phase       ScanPhase
	CurrentItem string
	Errors      []ScanError
	Current     int
	Total       int
}

// ScanPhase identifies the stage a scan run is in.
type ScanPhase string

const (
	PhaseWalking  ScanPhase = "walking"
	PhaseHashing  ScanPhase = "hashing"
	PhaseApplying ScanPhase = "applying"
	PhaseComplete ScanPhase = "complete"
)

// ScanError records a non-fatal error hit during a scan.
type ScanError struct {
	Time  time.Time
	Error error
	Path  string
	Phase ScanPhase
}
