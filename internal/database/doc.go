// Package database persists the download history in SQLite.
//
// Only successfully completed downloads are recorded; in-flight progress
// lives exclusively in the jobs registry. The database uses WAL mode with
// a busy timeout so that concurrent download workers can record results
// without lock contention.
package database
