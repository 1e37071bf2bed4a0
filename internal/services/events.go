package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// AnalysisStream is the Redis stream analysis jobs are queued on.
const AnalysisStream = "analysis:stream"

// Event types published while an answer recording is processed.
const (
	EventStatus     = "status"
	EventTranscript = "transcript"
	EventCoaching   = "coaching"
	EventDone       = "done"
)

func StatusChannel(interviewID string) string   { return "interview:" + interviewID + ":status" }
func ResponseChannel(interviewID string) string { return "interview:" + interviewID + ":response" }

// Event is the JSON payload on the status and response channels.
type Event struct {
	Type       string  `json:"type"`
	QuestionID int     `json:"question_id"`
	Status     string  `json:"status,omitempty"`
	Message    string  `json:"message,omitempty"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`
}

// Publish marshals ev onto channel. Publishing with no subscribers succeeds.
func Publish(ctx context.Context, rdb *redis.Client, channel string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return rdb.Publish(ctx, channel, b).Err()
}
