package entity

// Task status values as stored on the document
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusAssigned   = "assigned"
	StatusInProgress = "in-progress"
	StatusOnHold     = "on-hold"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"

	// StatusUnposted is found on records written before unposting kept the reviewed status
	StatusUnposted = "unposted"
)

// Final status values set by completion review
const (
	FinalStatusDone       = "done"
	FinalStatusNotDone    = "not-done"
	FinalStatusOnHold     = "on-hold"
	FinalStatusRejected   = "rejected"
	FinalStatusInProgress = "in-progress"
)

// Priority values
const (
	PriorityUrgent = "Urgent"
	PriorityHigh   = "High"
	PriorityNormal = "Normal"
)

// UnpostStatusUnposted marks a task edited through the unpost flow
const UnpostStatusUnposted = "unposted"

// DeveloperRejectionFixed is the developer_status_rejection value closing a fix cycle
const DeveloperRejectionFixed = "fixed"

// AttachmentCategory names one attachment list on a task
type AttachmentCategory string

const (
	CategoryTask              AttachmentCategory = "task"
	CategoryAssignment        AttachmentCategory = "assignment"
	CategoryCompletion        AttachmentCategory = "completion"
	CategoryRejection         AttachmentCategory = "rejection"
	CategoryDeveloper         AttachmentCategory = "developer"
	CategoryDeveloperSolution AttachmentCategory = "developer-solution"
)

// Document field names used in partial updates
const (
	FieldCode                              = "code"
	FieldCompany                           = "company"
	FieldContact                           = "contact"
	FieldWorking                           = "working"
	FieldDateTime                          = "dateTime"
	FieldPriority                          = "priority"
	FieldStatus                            = "status"
	FieldFinalStatus                       = "finalStatus"
	FieldAssigned                          = "assigned"
	FieldApproved                          = "approved"
	FieldCompletionApproved                = "completionApproved"
	FieldUnposted                          = "unposted"
	FieldAssignedTo                        = "assignedTo"
	FieldAssignedDate                      = "assignedDate"
	FieldAssignmentRemarks                 = "assignmentRemarks"
	FieldAssignmentAttachment              = "assignmentAttachment"
	FieldCompletionRemarks                 = "completionRemarks"
	FieldCompletionAttachment              = "completionAttachment"
	FieldRejectionRemarks                  = "rejectionRemarks"
	FieldRejectionAttachment               = "rejectionAttachment"
	FieldCompletionApprovedAt              = "completionApprovedAt"
	FieldTimeTaken                         = "timeTaken"
	FieldDeveloperStatus                   = "developer_status"
	FieldDeveloperRemarks                  = "developer_remarks"
	FieldDeveloperAttachment               = "developer_attachment"
	FieldDeveloperStatusRejection          = "developer_status_rejection"
	FieldDeveloperRejectionRemarks         = "developer_rejection_remarks"
	FieldDeveloperRejectionSolveAttachment = "developer_rejection_solve_attachment"
	FieldDeveloperDoneDate                 = "developer_done_date"
	FieldTasksAttachment                   = "TasksAttachment"
	FieldTaskRemarks                       = "TaskRemarks"
	FieldUnpostStatus                      = "UnpostStatus"
	FieldUnpostedAt                        = "unpostedAt"
	FieldApprovedAt                        = "approvedAt"
	FieldSoftwareType                      = "softwareType"
	FieldUpdatedAt                         = "updatedAt"
)

// AttachmentField returns the document field holding a category's references
func AttachmentField(category AttachmentCategory) (string, bool) {
	switch category {
	case CategoryTask:
		return FieldTasksAttachment, true
	case CategoryAssignment:
		return FieldAssignmentAttachment, true
	case CategoryCompletion:
		return FieldCompletionAttachment, true
	case CategoryRejection:
		return FieldRejectionAttachment, true
	case CategoryDeveloper:
		return FieldDeveloperAttachment, true
	case CategoryDeveloperSolution:
		return FieldDeveloperRejectionSolveAttachment, true
	}
	return "", false
}
