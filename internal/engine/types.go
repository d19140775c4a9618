package engine

// FormatKind selects the download pipeline for a job.
type FormatKind string

const (
	// KindAudio extracts the best audio stream and transcodes it to mp3.
	KindAudio FormatKind = "mp3"
	// KindVideo selects the best video+audio pair and merges into mp4.
	KindVideo FormatKind = "mp4"
	// KindOther falls back to the engine's generic best stream.
	KindOther FormatKind = "other"
)

// KindFromString maps a client-supplied format string onto a FormatKind.
// Anything that is not mp3 or mp4 uses the generic pipeline, matching the
// engine's own fallback behavior.
func KindFromString(s string) FormatKind {
	switch s {
	case "mp3":
		return KindAudio
	case "mp4":
		return KindVideo
	default:
		return KindOther
	}
}

// ProgressSink receives incremental download progress from the engine.
// percent, speed and eta are human-readable strings (e.g. "42.0%",
// "1.2MB/s", "01:30").
type ProgressSink func(percent, speed, eta string)

// Format describes a single stream variant available for a URL.
type Format struct {
	FormatID   string `json:"format_id"`
	Ext        string `json:"ext"`
	Resolution string `json:"resolution"`
	Filesize   int64  `json:"filesize"`
	Note       string `json:"note"`
}

// Metadata is the result of a metadata-only extraction.
type Metadata struct {
	Title     string   `json:"title"`
	Duration  float64  `json:"duration"`
	Uploader  string   `json:"uploader"`
	ViewCount int64    `json:"view_count"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []Format `json:"formats"`
}

// Result is the terminal payload of a completed download.
type Result struct {
	Filename string  // basename of the produced file inside the download dir
	Title    string
	Duration float64 // seconds
	Filesize int64   // bytes, 0 if the file is unexpectedly absent
}

// ExtractionError wraps an engine failure during metadata extraction.
// The message is engine-supplied and opaque.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return e.Err.Error() }

func (e *ExtractionError) Unwrap() error { return e.Err }

// DownloadError wraps an engine failure during a download.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string { return e.Err.Error() }

func (e *DownloadError) Unwrap() error { return e.Err }
