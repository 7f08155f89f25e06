package entity

import "time"

// TaskHistory is one accepted lifecycle transition of a task
type TaskHistory struct {
	ID             int64     `json:"id"`
	TaskID         string    `json:"task_id"`
	Trigger        string    `json:"trigger"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Actor          string    `json:"actor,omitempty"`
	Details        string    `json:"details,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// TaskActivity summarizes the history of a task
type TaskActivity struct {
	TaskID      string    `json:"task_id"`
	LastStatus  string    `json:"last_status"`
	Transitions int       `json:"transitions"`
	UpdatedAt   time.Time `json:"updated_at"`
}
