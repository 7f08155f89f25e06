package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"task created", TypeTaskCreated, true},
		{"task assigned", TypeTaskAssigned, true},
		{"completion reviewed", TypeCompletionReviewed, true},
		{"developer updated", TypeDeveloperUpdated, true},
		{"task unposted", TypeTaskUnposted, true},
		{"task deleted", TypeTaskDeleted, true},
		{"attachments packaged", TypeAttachmentsPackaged, true},
		{"unknown type", Type("unknown.type"), false},
		{"empty string", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestType_ChangesStatus(t *testing.T) {
	if !TypeCompletionReviewed.ChangesStatus() {
		t.Error("completion review should carry a status change")
	}
	if TypeTaskDeleted.ChangesStatus() {
		t.Error("delete should not carry a status change")
	}
	if TypeAttachmentsPackaged.ChangesStatus() {
		t.Error("packaging should not carry a status change")
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		KeyNewStatus: "completed",
	}

	event := NewEvent(TypeCompletionReviewed, "64b7f0c2a1d3e4f5a6b7c8d9", payload)

	if event == nil {
		t.Fatal("NewEvent() returned nil")
	}
	if event.ID == "" {
		t.Error("Event ID should not be empty")
	}
	if event.Type != TypeCompletionReviewed {
		t.Errorf("Event Type = %v, want %v", event.Type, TypeCompletionReviewed)
	}
	if event.TaskID != "64b7f0c2a1d3e4f5a6b7c8d9" {
		t.Errorf("Event TaskID = %v", event.TaskID)
	}
	if event.GetPayloadString(KeyNewStatus) != "completed" {
		t.Errorf("Event Payload[new_status] = %v", event.Payload[KeyNewStatus])
	}
	if event.CorrelationID == "" {
		t.Error("Event CorrelationID should not be empty")
	}
	if time.Since(event.Timestamp) > time.Second {
		t.Error("Event Timestamp should be recent")
	}
}

func TestNewEvent_NilPayload(t *testing.T) {
	event := NewEvent(TypeTaskDeleted, "t1", nil)
	if event.Payload == nil {
		t.Fatal("Payload should be initialized")
	}
	if got := event.WithPayload("k", "v").GetPayloadString("k"); got != "v" {
		t.Errorf("WithPayload on empty payload = %q", got)
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	event := NewEventWithCorrelation(TypeTaskUnposted, "t1", nil, "corr-1")

	if event.CorrelationID != "corr-1" {
		t.Errorf("Event CorrelationID = %v, want corr-1", event.CorrelationID)
	}
}

func TestEvent_WithPayload(t *testing.T) {
	original := NewEvent(TypeTaskCreated, "t1", map[string]interface{}{
		"key1": "value1",
	})

	modified := original.WithPayload("key2", "value2")

	if _, exists := original.Payload["key2"]; exists {
		t.Error("Original event should not be modified")
	}
	if modified.Payload["key1"] != "value1" || modified.Payload["key2"] != "value2" {
		t.Error("Modified event should hold both keys")
	}
	if modified.ID != original.ID || modified.TaskID != original.TaskID || modified.CorrelationID != original.CorrelationID {
		t.Error("Modified event should keep identity fields")
	}
}

func TestEvent_GetPayloadTyped(t *testing.T) {
	event := NewEvent(TypeTaskUpdated, "t1", map[string]interface{}{
		"status":  "assigned",
		"int64":   int64(100),
		"int":     50,
		"float64": 75.5,
		"flag":    true,
	})

	if got := event.GetPayloadString("int"); got != "" {
		t.Errorf("GetPayloadString(int) = %q, want empty", got)
	}
	if got := event.GetPayloadInt("int64"); got != 100 {
		t.Errorf("GetPayloadInt(int64) = %d", got)
	}
	if got := event.GetPayloadInt("int"); got != 50 {
		t.Errorf("GetPayloadInt(int) = %d", got)
	}
	if got := event.GetPayloadInt("float64"); got != 75 {
		t.Errorf("GetPayloadInt(float64) = %d", got)
	}
	if got := event.GetPayloadInt("status"); got != 0 {
		t.Errorf("GetPayloadInt(status) = %d", got)
	}
	if !event.GetPayloadBool("flag") || event.GetPayloadBool("missing") {
		t.Error("GetPayloadBool mismatch")
	}
}
