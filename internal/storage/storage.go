package storage

import (
	"context"
	"io"
	"path"
	"strconv"
)

// Uploader stores recordings and returns a path Downloader accepts.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// Downloader reads back what Uploader stored.
type Downloader interface {
	Download(ctx context.Context, storedPath string, maxBytes int64) ([]byte, error)
}

// RecordingObject names the object holding one answer recording.
func RecordingObject(interviewID string, questionID int, ext string) string {
	return path.Join("interviews", interviewID, "answers", strconv.Itoa(questionID)+ext)
}
