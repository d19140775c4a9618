// Package memory configures the Go runtime's soft memory limit from
// container limits. Because most of this process's memory pressure comes
// from yt-dlp and ffmpeg subprocesses sharing the cgroup, only a portion
// of the container limit is given to the Go heap.
package memory
