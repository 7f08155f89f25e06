package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Task is the central work item tracked through assignment, completion review and unposting.
// Company and assignee are denormalized snapshots owned by the administrative collections.
type Task struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Code     string             `bson:"code" json:"code"`
	Company  CompanySnapshot    `bson:"company" json:"company"`
	Contact  Contact            `bson:"contact" json:"contact"`
	Working  string             `bson:"working" json:"working"`
	DateTime *time.Time         `bson:"dateTime,omitempty" json:"dateTime,omitempty"`
	Priority string             `bson:"priority" json:"priority"`

	// Workflow flags
	Status             string `bson:"status" json:"status"`
	FinalStatus        string `bson:"finalStatus,omitempty" json:"finalStatus,omitempty"`
	Assigned           bool   `bson:"assigned" json:"assigned"`
	Approved           bool   `bson:"approved" json:"approved"`
	CompletionApproved bool   `bson:"completionApproved" json:"completionApproved"`
	Unposted           bool   `bson:"unposted" json:"unposted"`

	// Assignment
	AssignedTo           *UserSnapshot `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedDate         *time.Time    `bson:"assignedDate,omitempty" json:"assignedDate,omitempty"`
	AssignmentRemarks    string        `bson:"assignmentRemarks,omitempty" json:"assignmentRemarks,omitempty"`
	AssignmentAttachment RefList       `bson:"assignmentAttachment,omitempty" json:"assignmentAttachment,omitempty"`
	ApprovedAt           *time.Time    `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	SoftwareType         string        `bson:"softwareType,omitempty" json:"softwareType,omitempty"`

	// Completion review
	CompletionRemarks    string     `bson:"completionRemarks,omitempty" json:"completionRemarks,omitempty"`
	CompletionAttachment RefList    `bson:"completionAttachment,omitempty" json:"completionAttachment,omitempty"`
	RejectionRemarks     string     `bson:"rejectionRemarks,omitempty" json:"rejectionRemarks,omitempty"`
	RejectionAttachment  RefList    `bson:"rejectionAttachment,omitempty" json:"rejectionAttachment,omitempty"`
	CompletionApprovedAt *time.Time `bson:"completionApprovedAt,omitempty" json:"completionApprovedAt,omitempty"`
	TimeTaken            *int64     `bson:"timeTaken,omitempty" json:"timeTaken,omitempty"`

	// Developer fix cycle
	DeveloperStatus                   string     `bson:"developer_status,omitempty" json:"developer_status,omitempty"`
	DeveloperRemarks                  string     `bson:"developer_remarks,omitempty" json:"developer_remarks,omitempty"`
	DeveloperAttachment               RefList    `bson:"developer_attachment,omitempty" json:"developer_attachment,omitempty"`
	DeveloperStatusRejection          string     `bson:"developer_status_rejection,omitempty" json:"developer_status_rejection,omitempty"`
	DeveloperRejectionRemarks         string     `bson:"developer_rejection_remarks,omitempty" json:"developer_rejection_remarks,omitempty"`
	DeveloperRejectionSolveAttachment RefList    `bson:"developer_rejection_solve_attachment,omitempty" json:"developer_rejection_solve_attachment,omitempty"`
	DeveloperDoneDate                 *time.Time `bson:"developer_done_date,omitempty" json:"developer_done_date,omitempty"`

	TasksAttachment RefList    `bson:"TasksAttachment,omitempty" json:"TasksAttachment,omitempty"`
	TaskRemarks     string     `bson:"TaskRemarks,omitempty" json:"TaskRemarks,omitempty"`
	UnpostStatus    string     `bson:"UnpostStatus,omitempty" json:"UnpostStatus,omitempty"`
	UnpostedAt      *time.Time `bson:"unpostedAt,omitempty" json:"unpostedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CompanySnapshot is the denormalized company copy embedded in a task
type CompanySnapshot struct {
	ID             primitive.ObjectID `bson:"id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	City           string             `bson:"city,omitempty" json:"city,omitempty"`
	Address        string             `bson:"address,omitempty" json:"address,omitempty"`
	Representative string             `bson:"representative,omitempty" json:"representative,omitempty"`
	Support        string             `bson:"support,omitempty" json:"support,omitempty"`
}

// Contact is the person to reach at the company for a task
type Contact struct {
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone" json:"phone"`
}

// UserSnapshot is the denormalized assignee copy embedded in a task
type UserSnapshot struct {
	ID       primitive.ObjectID `bson:"id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Name     string             `bson:"name" json:"name"`
	Role     RoleRef            `bson:"role" json:"role"`
}

// RoleRef carries the role name of a user snapshot
type RoleRef struct {
	Name string `bson:"name" json:"name"`
}

// IDHex returns the hex form of the task id
func (t *Task) IDHex() string {
	return t.ID.Hex()
}

// Attachments returns the reference list stored for a category
func (t *Task) Attachments(category AttachmentCategory) RefList {
	switch category {
	case CategoryTask:
		return t.TasksAttachment
	case CategoryAssignment:
		return t.AssignmentAttachment
	case CategoryCompletion:
		return t.CompletionAttachment
	case CategoryRejection:
		return t.RejectionAttachment
	case CategoryDeveloper:
		return t.DeveloperAttachment
	case CategoryDeveloperSolution:
		return t.DeveloperRejectionSolveAttachment
	}
	return nil
}

// SetAttachments replaces the reference list of a category
func (t *Task) SetAttachments(category AttachmentCategory, refs RefList) {
	switch category {
	case CategoryTask:
		t.TasksAttachment = refs
	case CategoryAssignment:
		t.AssignmentAttachment = refs
	case CategoryCompletion:
		t.CompletionAttachment = refs
	case CategoryRejection:
		t.RejectionAttachment = refs
	case CategoryDeveloper:
		t.DeveloperAttachment = refs
	case CategoryDeveloperSolution:
		t.DeveloperRejectionSolveAttachment = refs
	}
}

// AllAttachments returns every reference held by the task across categories
func (t *Task) AllAttachments() RefList {
	var all RefList
	for _, c := range []AttachmentCategory{
		CategoryTask, CategoryAssignment, CategoryCompletion,
		CategoryRejection, CategoryDeveloper, CategoryDeveloperSolution,
	} {
		all = append(all, t.Attachments(c)...)
	}
	return all
}

// ArchiveName returns the download name for a zipped attachment category
func (t *Task) ArchiveName(category AttachmentCategory) string {
	label := t.Code
	if label == "" {
		label = t.IDHex()
	}
	return "task-" + label + "-" + string(category) + "-attachments.zip"
}

// TaskUpdate is a partial document update keyed by stored field name
type TaskUpdate map[string]interface{}

// Set records a field assignment
func (u TaskUpdate) Set(field string, value interface{}) TaskUpdate {
	u[field] = value
	return u
}

// Has reports whether the update touches field
func (u TaskUpdate) Has(field string) bool {
	_, ok := u[field]
	return ok
}
