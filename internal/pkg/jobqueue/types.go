package jobqueue

import (
	"context"
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeStripeEvent JobType = "stripe_event"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	Result      map[string]interface{} `json:"result,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// Handler executes one job. The returned map is stored as the job result.
type Handler func(ctx context.Context, job *Job) (map[string]interface{}, error)

// Stats summarises queue depth and terminal counters.
type Stats struct {
	Pending    int64               `json:"pending"`
	Processing int64               `json:"processing"`
	Counters   map[JobStatus]int64 `json:"counters"`
}

// StripeEventJobPayload carries a verified Stripe event to the worker. The
// raw event JSON is kept so the worker decodes exactly what was verified.
type StripeEventJobPayload struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	EventJSON string `json:"event_json"`
}

// ToMap converts the payload to a map for storage
func (p StripeEventJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"event_id":   p.EventID,
		"event_type": p.EventType,
		"event_json": p.EventJSON,
	}
}

// StripeEventJobPayloadFromMap creates a payload from a map
func StripeEventJobPayloadFromMap(data map[string]interface{}) (*StripeEventJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload StripeEventJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried. MaxRetries counts attempts
// beyond the first one.
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount <= j.MaxRetries
}

// IsTerminal reports whether the job will not change state anymore.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted(result map[string]interface{}) {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
	j.Result = result
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
	j.CompletedAt = nil
}

func newJob(id string, jobType JobType, payload map[string]interface{}, maxRetries int) *Job {
	now := time.Now()
	return &Job{
		ID:         id,
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: maxRetries,
	}
}
