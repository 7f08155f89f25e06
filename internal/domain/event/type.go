package event

// Type identifies the type of domain event
type Type string

const (
	TypeTaskCreated         Type = "task.created"
	TypeTaskUpdated         Type = "task.updated"
	TypeTaskAssigned        Type = "task.assigned"
	TypeCompletionReviewed  Type = "task.completion_reviewed"
	TypeDeveloperUpdated    Type = "task.developer_updated"
	TypeTaskUnposted        Type = "task.unposted"
	TypeTaskDeleted         Type = "task.deleted"
	TypeAttachmentsPackaged Type = "attachments.packaged"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTaskCreated,
		TypeTaskUpdated,
		TypeTaskAssigned,
		TypeCompletionReviewed,
		TypeDeveloperUpdated,
		TypeTaskUnposted,
		TypeTaskDeleted,
		TypeAttachmentsPackaged:
		return true
	default:
		return false
	}
}

// ChangesStatus reports whether events of this type may carry a status transition
func (t Type) ChangesStatus() bool {
	switch t {
	case TypeTaskCreated, TypeTaskUpdated, TypeTaskAssigned, TypeCompletionReviewed, TypeDeveloperUpdated, TypeTaskUnposted:
		return true
	}
	return false
}
