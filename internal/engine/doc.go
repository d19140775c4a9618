// Package engine adapts the external yt-dlp media engine.
//
// It translates (url, format kind, quality) requests into engine flag
// configurations, wires the engine's progress hook to a ProgressSink, and
// normalizes results and failures into uniform shapes:
//   - FetchMetadata returns a Metadata or an *ExtractionError
//   - Download returns a Result or a *DownloadError
//
// Error messages are engine-supplied and treated as opaque. The engine
// binary (yt-dlp) and FFmpeg must be installed and available in PATH;
// availability is checked at startup.
package engine
