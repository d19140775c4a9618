package database

import (
	"context"
	"fmt"
	"time"

	"media-grabber/internal/jobs"
)

// DownloadRecord is one row of the persistent download history.
type DownloadRecord struct {
	DownloadID string  `json:"download_id"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Filename   string  `json:"filename"`
	Format     string  `json:"format"`
	Quality    string  `json:"quality"`
	Duration   float64 `json:"duration"`
	Filesize   int64   `json:"filesize"`
	CreatedAt  int64   `json:"created_at"`
}

// RecordDownload persists a successfully completed download. Failed jobs
// are not recorded; their error is only surfaced through the job registry.
func (d *Database) RecordDownload(ctx context.Context, downloadID, url, format, quality string, result jobs.Result) error {
	if !result.Success {
		return nil
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(opCtx, `
		INSERT INTO downloads (download_id, url, title, filename, format, quality, duration, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		downloadID, url, result.Title, result.Filename, format, quality, result.Duration, result.Filesize,
	)
	observeQuery("record_download", start, err)
	if err != nil {
		return fmt.Errorf("failed to record download %s: %w", downloadID, err)
	}
	return nil
}

// History returns the most recent downloads, newest first.
func (d *Database) History(ctx context.Context, limit int) ([]DownloadRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx, `
		SELECT download_id, url, title, filename, format, quality, duration, filesize, created_at
		FROM downloads
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	observeQuery("history", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []DownloadRecord{}
	for rows.Next() {
		var rec DownloadRecord
		if err := rows.Scan(&rec.DownloadID, &rec.URL, &rec.Title, &rec.Filename,
			&rec.Format, &rec.Quality, &rec.Duration, &rec.Filesize, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return records, nil
}
