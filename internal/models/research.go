package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResearchSummary aggregates a research result for display.
type ResearchSummary struct {
	TotalRequirements   int    `json:"totalRequirements"`
	MatchedRequirements int    `json:"matchedRequirements"`
	AverageConfidence   int    `json:"averageConfidence"`
	EstimatedDelivery   string `json:"estimatedDelivery"`
}

// ResearchResult is the output of one completed research pipeline run.
type ResearchResult struct {
	SolicitationID     string          `json:"solicitationId"`
	Requirements       []Requirement   `json:"requirements"`
	Matches            []Candidate     `json:"matches"`
	Analysis           Findings        `json:"analysis"`
	TotalEstimatedCost decimal.Decimal `json:"totalEstimatedCost"`
	Currency           string          `json:"currency"`
	ResearchedAt       time.Time       `json:"researchedAt"`
	Status             string          `json:"status"`
	Summary            ResearchSummary `json:"summary"`
}

// JobStatus is the lifecycle state of a research job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Active reports whether the job has not reached a terminal state.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning
}

// ResearchJob tracks one background research run.
type ResearchJob struct {
	ID             string          `json:"id"`
	SolicitationID string          `json:"solicitationId"`
	UserID         string          `json:"userId"`
	Status         JobStatus       `json:"status"`
	Error          string          `json:"error,omitempty"`
	Result         *ResearchResult `json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
	FinishedAt     *time.Time      `json:"finishedAt,omitempty"`
}
