package handlers

import (
	"context"

	"media-grabber/internal/database"
	"media-grabber/internal/engine"
	"media-grabber/internal/jobs"
)

// MetadataFetcher is the engine surface used by the video-info endpoint.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (*engine.Metadata, error)
}

// Coordinator starts and cancels download jobs.
type Coordinator interface {
	Start(url string, kind engine.FormatKind, quality string) string
	Cancel(id string) bool
}

// JobStore is the read side of the job registry.
type JobStore interface {
	Get(id string) (jobs.View, bool)
	Active() int
	Tracked() int
}

// HistoryStore serves the persistent download history.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]database.DownloadRecord, error)
}

// Pinger reports backing-store connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	engine      MetadataFetcher
	coordinator Coordinator
	store       JobStore
	history     HistoryStore
	db          Pinger
	downloadDir string
}

func New(eng MetadataFetcher, coord Coordinator, store JobStore, history HistoryStore, db Pinger, downloadDir string) *Handlers {
	return &Handlers{
		engine:      eng,
		coordinator: coord,
		store:       store,
		history:     history,
		db:          db,
		downloadDir: downloadDir,
	}
}
