package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"media-grabber/internal/logging"
	"media-grabber/internal/metrics"
)

// DefaultMetadataTimeout bounds metadata-only extractions. Downloads are
// never subject to a deadline; they run as long as the engine needs.
const DefaultMetadataTimeout = 60 * time.Second

// progressInterval is how often the engine reports download progress.
const progressInterval = 500 * time.Millisecond

// outputTemplate names downloaded files after the media title. Jobs with
// identical titles overwrite each other (last writer wins).
const outputTemplate = "%(title)s.%(ext)s"

// Adapter wraps the yt-dlp engine and normalizes its results and errors.
// All engine invocations are synchronous; Download blocks for the whole
// duration of the transfer.
type Adapter struct {
	downloadDir     string
	metadataTimeout time.Duration
}

// New creates an Adapter that writes downloaded files into downloadDir.
func New(downloadDir string) *Adapter {
	return &Adapter{
		downloadDir:     downloadDir,
		metadataTimeout: DefaultMetadataTimeout,
	}
}

// SetMetadataTimeout overrides the timeout applied to metadata extractions.
func (a *Adapter) SetMetadataTimeout(d time.Duration) {
	a.metadataTimeout = d
}

// FetchMetadata extracts title, duration, uploader, view count, thumbnail
// and the available formats for url without downloading anything.
func (a *Adapter) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, a.metadataTimeout)
	defer cancel()

	start := time.Now()

	res, err := buildMetadata().Run(ctx, url)
	if err != nil {
		metrics.MetadataRequestsTotal.WithLabelValues("error").Inc()
		return nil, &ExtractionError{Err: err}
	}

	info, err := parseInfoJSON(res.Stdout)
	if err != nil {
		metrics.MetadataRequestsTotal.WithLabelValues("error").Inc()
		return nil, &ExtractionError{Err: err}
	}

	metrics.MetadataRequestsTotal.WithLabelValues("success").Inc()
	metrics.MetadataRequestDuration.Observe(time.Since(start).Seconds())

	return info.metadata(), nil
}

// Download fetches url in the given format kind and quality, reporting
// progress through sink. It blocks until the engine finishes. The returned
// filename is a basename relative to the adapter's download directory.
func (a *Adapter) Download(ctx context.Context, url string, kind FormatKind, quality string, sink ProgressSink) (*Result, error) {
	dl := a.buildDownload(kind, quality)

	if sink != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			percent, speed, eta := describeProgress(&update)
			sink(percent, speed, eta)
		})
	}

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, &DownloadError{Err: err}
	}

	info, err := parseInfoJSON(res.Stdout)
	if err != nil {
		return nil, &DownloadError{Err: fmt.Errorf("engine returned no parseable result: %w", err)}
	}

	filename := filepath.Base(info.filename())
	if filename == "." || filename == "/" {
		return nil, &DownloadError{Err: errors.New("engine did not report an output file")}
	}

	// The audio postprocessor swaps the container after the download
	// finishes, so the reported filename still carries the source extension.
	if kind == KindAudio {
		filename = reextension(filename, ".mp3")
	}

	result := &Result{
		Filename: filename,
		Title:    info.Title,
		Duration: info.Duration,
		Filesize: a.fileSize(filename),
	}

	return result, nil
}

// buildMetadata configures a metadata-only extraction: no download, one
// JSON info dict on stdout.
func buildMetadata() *ytdlp.Command {
	return ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON()
}

// buildDownload configures the engine command for a format kind and quality.
func (a *Adapter) buildDownload(kind FormatKind, quality string) *ytdlp.Command {
	dl := ytdlp.New().
		NoWarnings().
		NoPlaylist().
		ForceOverwrites().
		PrintJSON().
		Output(filepath.Join(a.downloadDir, outputTemplate))

	switch kind {
	case KindAudio:
		if quality == "" {
			quality = "192"
		}
		dl.Format("bestaudio/best").
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(quality)
	case KindVideo:
		if quality == "" || quality == "best" {
			dl.Format("bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best")
		} else {
			dl.Format(fmt.Sprintf("bestvideo[height<=%s][ext=mp4]+bestaudio[ext=m4a]/best[height<=%s][ext=mp4]/best", quality, quality))
		}
		dl.MergeOutputFormat("mp4")
	default:
		dl.Format("best")
	}

	return dl
}

// fileSize returns the size of name inside the download directory, or 0 if
// the file is unexpectedly absent after the engine reported success.
func (a *Adapter) fileSize(name string) int64 {
	fi, err := os.Stat(filepath.Join(a.downloadDir, name))
	if err != nil {
		logging.Warn("downloaded file missing after completion: %s: %v", name, err)
		return 0
	}
	return fi.Size()
}

// describeProgress converts an engine progress update into the percent,
// speed and ETA strings surfaced to polling clients.
func describeProgress(update *ytdlp.ProgressUpdate) (percent, speed, eta string) {
	percent, speed, eta = "0%", "N/A", "N/A"

	if update.TotalBytes > 0 {
		pct := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		percent = fmt.Sprintf("%.1f%%", pct)
	}

	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			speed = formatSpeed(bytesPerSecond)
		}
	}

	if remaining := update.ETA(); remaining > 0 {
		eta = formatETA(int(remaining.Seconds()))
	}

	return percent, speed, eta
}

// formatSpeed renders a byte rate as a human-readable string.
func formatSpeed(bytesPerSecond float64) string {
	switch {
	case bytesPerSecond >= 1024*1024:
		return fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
	case bytesPerSecond >= 1024:
		return fmt.Sprintf("%.1fKB/s", bytesPerSecond/1024)
	default:
		return fmt.Sprintf("%.0fB/s", bytesPerSecond)
	}
}

// formatETA renders seconds as mm:ss, or hh:mm:ss for long transfers.
func formatETA(seconds int) string {
	if seconds <= 0 {
		return "N/A"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// reextension swaps the extension of name for ext.
func reextension(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// infoDict mirrors the subset of the engine's info JSON the adapter reads.
type infoDict struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	ViewCount   int64   `json:"view_count"`
	Thumbnail   string  `json:"thumbnail"`
	Ext         string  `json:"ext"`
	Filename    string  `json:"filename"`
	OldFilename string  `json:"_filename"`
	Formats     []struct {
		FormatID   string `json:"format_id"`
		Ext        string `json:"ext"`
		Resolution string `json:"resolution"`
		Filesize   int64  `json:"filesize"`
		FormatNote string `json:"format_note"`
		Vcodec     string `json:"vcodec"`
		Acodec     string `json:"acodec"`
	} `json:"formats"`
}

// filename picks the output path the engine reported, preferring the
// modern key over the legacy underscore-prefixed one.
func (d *infoDict) filename() string {
	if d.Filename != "" {
		return d.Filename
	}
	if d.OldFilename != "" {
		return d.OldFilename
	}
	// Engine versions that omit both keys still report title and ext.
	if d.Title != "" && d.Ext != "" {
		return d.Title + "." + d.Ext
	}
	return ""
}

// metadata converts an info dict into the adapter's Metadata shape,
// filtering formats to those that carry video and/or audio payload.
func (d *infoDict) metadata() *Metadata {
	m := &Metadata{
		Title:     d.Title,
		Duration:  d.Duration,
		Uploader:  d.Uploader,
		ViewCount: d.ViewCount,
		Thumbnail: d.Thumbnail,
		Formats:   []Format{},
	}
	if m.Title == "" {
		m.Title = "Unknown"
	}
	if m.Uploader == "" {
		m.Uploader = "Unknown"
	}

	for _, f := range d.Formats {
		if f.Vcodec == "none" && f.Acodec == "none" {
			continue
		}
		m.Formats = append(m.Formats, Format{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Resolution: f.Resolution,
			Filesize:   f.Filesize,
			Note:       f.FormatNote,
		})
	}

	return m
}

// parseInfoJSON extracts the last JSON object from the engine's stdout.
// The engine interleaves progress noise with JSON lines, so each line is
// tried independently and the last parseable one wins.
func parseInfoJSON(stdout string) (*infoDict, error) {
	var last *infoDict

	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var d infoDict
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			continue
		}
		last = &d
	}

	if last == nil {
		return nil, errors.New("no JSON object in engine output")
	}
	return last, nil
}
