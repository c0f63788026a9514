package models

import "time"

type AnalysisRequest struct {
	Text string `json:"text" validate:"required"`
}

type AnalysisResult struct {
	Emotion string            `json:"emotion"`
	Scores  map[string]string `json:"scores"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalysisRecord describes a single analysis for the history and event
// sinks. The submitted text itself is never recorded.
type AnalysisRecord struct {
	ID             string    `json:"id" dynamodbav:"id"`
	Emotion        string    `json:"emotion" dynamodbav:"emotion"`
	Score          float64   `json:"score" dynamodbav:"score"`
	FormattedScore string    `json:"formatted_score" dynamodbav:"formatted_score"`
	TokenCount     int       `json:"token_count" dynamodbav:"token_count"`
	TextLength     int       `json:"text_length" dynamodbav:"text_length"`
	Cached         bool      `json:"cached" dynamodbav:"cached"`
	CreatedAt      time.Time `json:"created_at" dynamodbav:"-"`
}
