package manifest

// FileName is the name of the manifest written next to batch outputs.
const FileName = "imgconv.manifest.json"

// Manifest is the report of an imgconv batch run.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Target      string           `json:"target"` // output MIME type
	SourceDir   string           `json:"source_dir"`
	BuildInfo   *BuildInfo       `json:"build_info,omitempty"`
	Files       map[string]Entry `json:"files"` // keyed by source path relative to SourceDir
	Stats       Stats            `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers    int  `json:"workers"`
	QueueDepth int  `json:"queue_depth"`
	Isolated   bool `json:"isolated"` // conversions ran in child processes
}

// Entry describes one source file and its outcome. Exactly one of Output
// and Error is set.
type Entry struct {
	Source SourceInfo  `json:"source"`
	Output *OutputInfo `json:"output,omitempty"`
	Error  *ErrorInfo  `json:"error,omitempty"`
}

// SourceInfo holds metadata about the input file.
type SourceInfo struct {
	Type string `json:"type"` // resolved MIME type
	Size int64  `json:"size"`
}

// OutputInfo is the converted file.
type OutputInfo struct {
	Type       string `json:"type"`
	Size       int64  `json:"size"` // bytes on disk
	Hash       string `json:"hash"` // 16 hex chars of xxhash64
	Path       string `json:"path"` // relative to the manifest
	DurationMS int64  `json:"duration_ms"`
}

// ErrorInfo records why a file was not converted.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalFiles       int   `json:"total_files"`
	Converted        int   `json:"converted"`
	Failed           int   `json:"failed"`
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1
