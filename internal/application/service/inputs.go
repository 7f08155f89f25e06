package service

import (
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

// AttachmentChange describes the requested state of one attachment category.
// Keep is the client's list of references to retain; nil keeps whatever is stored.
type AttachmentChange struct {
	Keep  *entity.RefList
	Files []Upload
}

// Touched reports whether the request mentions the category at all
func (c AttachmentChange) Touched() bool {
	return c.Keep != nil || len(c.Files) > 0
}

func (c AttachmentChange) base(stored entity.RefList) entity.RefList {
	if c.Keep != nil {
		return *c.Keep
	}
	return stored
}

// CreateTaskInput carries the fields of a new task
type CreateTaskInput struct {
	Code        string
	CompanyID   string
	Contact     entity.Contact
	Working     string
	DateTime    *time.Time
	Priority    string
	TaskRemarks string
	Files       []Upload
	Actor       string
}

// GeneralEditInput carries a general edit. Nil fields are left unchanged.
type GeneralEditInput struct {
	Code         *string
	CompanyID    *string
	Contact      *entity.Contact
	Working      *string
	DateTime     *time.Time
	Priority     *string
	Status       *string
	Assigned     *bool
	Approved     *bool
	AssignedToID *string
	TaskRemarks  *string
	Attachments  AttachmentChange
	Actor        string
}

// AssignInput carries an assignment of a task to a user
type AssignInput struct {
	TaskID      string
	UserID      string
	Remarks     string
	Attachments AttachmentChange
	Actor       string
}

// CompletionInput carries a completion review
type CompletionInput struct {
	CompletionApproved bool
	FinalStatus        string
	Remarks            string
	Attachments        AttachmentChange
	Actor              string
}

// DeveloperInput carries the developer fix-cycle fields. Nil fields are left unchanged.
type DeveloperInput struct {
	Status              *string
	Remarks             *string
	StatusRejection     *string
	RejectionRemarks    *string
	DoneDate            *time.Time
	Attachments         AttachmentChange
	SolutionAttachments AttachmentChange
	Actor               string
}

// UnpostInput carries a post-completion correction. Nil fields are left unchanged.
type UnpostInput struct {
	GeneralEditInput

	AssignmentRemarks         *string
	CompletionRemarks         *string
	RejectionRemarks          *string
	FinalStatus               *string
	DeveloperStatus           *string
	DeveloperRemarks          *string
	DeveloperStatusRejection  *string
	DeveloperRejectionRemarks *string
	DeveloperDoneDate         *time.Time

	AssignmentAttachments AttachmentChange
	CompletionAttachments AttachmentChange
	DeveloperAttachments  AttachmentChange
}
