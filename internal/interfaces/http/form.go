package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

// Accepted layouts for date fields, tried in order
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// formData is one parsed request body. Text values and files are looked up by field name.
// A field carrying both text and files lists the references to keep next to the new uploads.
type formData struct {
	values url.Values
	files  map[string][]*multipart.FileHeader

	// uploads larger than this are cut at limit+1 bytes so size validation still rejects them
	limit int64
}

func parseForm(c *gin.Context, limit int64) (*formData, error) {
	f := &formData{values: url.Values{}, files: map[string][]*multipart.FileHeader{}, limit: limit}

	mf, err := c.MultipartForm()
	switch {
	case err == nil:
		f.values = mf.Value
		f.files = mf.File
	case errors.Is(err, http.ErrNotMultipart):
		if err := c.Request.ParseForm(); err != nil {
			return nil, &service.ValidationError{Field: "body", Message: "malformed form body"}
		}
		f.values = c.Request.PostForm
	default:
		return nil, &service.ValidationError{Field: "body", Message: fmt.Sprintf("malformed multipart body: %v", err)}
	}
	return f, nil
}

// has reports whether the field was sent at all
func (f *formData) has(key string) bool {
	if _, ok := f.values[key]; ok {
		return true
	}
	_, ok := f.files[key]
	return ok
}

func (f *formData) value(key string) string {
	return strings.TrimSpace(f.values.Get(key))
}

// str returns nil when the field is absent
func (f *formData) str(key string) *string {
	if _, ok := f.values[key]; !ok {
		return nil
	}
	v := f.value(key)
	return &v
}

func (f *formData) boolean(key string) (*bool, error) {
	if _, ok := f.values[key]; !ok {
		return nil, nil
	}
	raw := f.value(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &service.ValidationError{Field: key, Message: fmt.Sprintf("%q is not a boolean", raw)}
	}
	return &v, nil
}

func (f *formData) date(key string) (*time.Time, error) {
	raw := f.value(key)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, &service.ValidationError{Field: key, Message: err.Error()}
	}
	return &t, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized date", raw)
}

// uploads reads every file sent under key
func (f *formData) uploads(key string) ([]service.Upload, error) {
	headers := f.files[key]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := f.readUpload(key, fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (f *formData) readUpload(key string, fh *multipart.FileHeader) (service.Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return service.Upload{}, &service.StorageError{Op: "read upload", Err: err}
	}
	defer file.Close()

	var r io.Reader = file
	if f.limit > 0 {
		r = io.LimitReader(file, f.limit+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return service.Upload{}, &service.StorageError{Op: "read upload", Err: err}
	}

	return service.Upload{
		Field:       key,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}

// attachments builds the requested state of one category. Text values under key are
// the references to keep in any of the accepted shapes; files under key are new uploads.
func (f *formData) attachments(key string) (service.AttachmentChange, error) {
	var change service.AttachmentChange
	if raw, ok := f.values[key]; ok {
		keep := entity.NormalizeRefs(raw)
		change.Keep = &keep
	}
	files, err := f.uploads(key)
	if err != nil {
		return change, err
	}
	change.Files = files
	return change, nil
}

// firstPresent returns the first key the request carries, or the first key
func (f *formData) firstPresent(keys ...string) string {
	for _, k := range keys {
		if f.has(k) {
			return k
		}
	}
	return keys[0]
}

// contact accepts a JSON object under "contact" or flat contactName/contactPhone fields
func (f *formData) contact() (*entity.Contact, error) {
	if raw := f.value("contact"); raw != "" {
		var c entity.Contact
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, &service.ValidationError{Field: entity.FieldContact, Message: "contact must be a JSON object with name and phone"}
		}
		return &c, nil
	}
	name, phone := f.str("contactName"), f.str("contactPhone")
	if name == nil && phone == nil {
		return nil, nil
	}
	c := &entity.Contact{}
	if name != nil {
		c.Name = *name
	}
	if phone != nil {
		c.Phone = *phone
	}
	return c, nil
}

// generalEdit reads the fields shared by the general edit and the unpost edit
func (f *formData) generalEdit(actor string) (service.GeneralEditInput, error) {
	in := service.GeneralEditInput{
		Code:         f.str(entity.FieldCode),
		CompanyID:    f.str(entity.FieldCompany),
		Working:      f.str(entity.FieldWorking),
		Priority:     f.str(entity.FieldPriority),
		Status:       f.str(entity.FieldStatus),
		AssignedToID: f.str(entity.FieldAssignedTo),
		TaskRemarks:  f.str(entity.FieldTaskRemarks),
		Actor:        actor,
	}

	var err error
	if in.Contact, err = f.contact(); err != nil {
		return in, err
	}
	if in.DateTime, err = f.date(entity.FieldDateTime); err != nil {
		return in, err
	}
	if in.Assigned, err = f.boolean(entity.FieldAssigned); err != nil {
		return in, err
	}
	if in.Approved, err = f.boolean(entity.FieldApproved); err != nil {
		return in, err
	}
	if in.Attachments, err = f.attachments(entity.FieldTasksAttachment); err != nil {
		return in, err
	}
	return in, nil
}

// completion reads a completion review. Remarks and files are taken from the
// rejection fields for a rejected verdict and from the completion fields otherwise,
// falling back to the other pair when only that one was sent.
func (f *formData) completion(actor string) (service.CompletionInput, error) {
	in := service.CompletionInput{
		FinalStatus: f.value(entity.FieldFinalStatus),
		Actor:       actor,
	}

	approved, err := f.boolean(entity.FieldCompletionApproved)
	if err != nil {
		return in, err
	}
	in.CompletionApproved = approved != nil && *approved

	remarksKeys := []string{entity.FieldCompletionRemarks, entity.FieldRejectionRemarks}
	fileKeys := []string{entity.FieldCompletionAttachment, entity.FieldRejectionAttachment}
	if in.FinalStatus == entity.FinalStatusRejected {
		remarksKeys[0], remarksKeys[1] = remarksKeys[1], remarksKeys[0]
		fileKeys[0], fileKeys[1] = fileKeys[1], fileKeys[0]
	}

	in.Remarks = f.value(f.firstPresent(remarksKeys...))
	if in.Attachments, err = f.attachments(f.firstPresent(fileKeys...)); err != nil {
		return in, err
	}
	return in, nil
}

func (f *formData) assignment(actor string) (service.AssignInput, error) {
	in := service.AssignInput{
		TaskID:  f.value("taskId"),
		UserID:  f.value(entity.FieldAssignedTo),
		Remarks: f.value(entity.FieldAssignmentRemarks),
		Actor:   actor,
	}
	var err error
	in.Attachments, err = f.attachments(entity.FieldAssignmentAttachment)
	return in, err
}

func (f *formData) developer(actor string) (service.DeveloperInput, error) {
	in := service.DeveloperInput{
		Status:           f.str(entity.FieldDeveloperStatus),
		Remarks:          f.str(entity.FieldDeveloperRemarks),
		StatusRejection:  f.str(entity.FieldDeveloperStatusRejection),
		RejectionRemarks: f.str(entity.FieldDeveloperRejectionRemarks),
		Actor:            actor,
	}

	var err error
	if in.DoneDate, err = f.date(entity.FieldDeveloperDoneDate); err != nil {
		return in, err
	}
	if in.Attachments, err = f.attachments(entity.FieldDeveloperAttachment); err != nil {
		return in, err
	}
	if in.SolutionAttachments, err = f.attachments(entity.FieldDeveloperRejectionSolveAttachment); err != nil {
		return in, err
	}
	return in, nil
}

func (f *formData) unpost(actor string) (service.UnpostInput, error) {
	general, err := f.generalEdit(actor)
	if err != nil {
		return service.UnpostInput{}, err
	}

	in := service.UnpostInput{
		GeneralEditInput:          general,
		AssignmentRemarks:         f.str(entity.FieldAssignmentRemarks),
		CompletionRemarks:         f.str(entity.FieldCompletionRemarks),
		RejectionRemarks:          f.str(entity.FieldRejectionRemarks),
		FinalStatus:               f.str(entity.FieldFinalStatus),
		DeveloperStatus:           f.str(entity.FieldDeveloperStatus),
		DeveloperRemarks:          f.str(entity.FieldDeveloperRemarks),
		DeveloperStatusRejection:  f.str(entity.FieldDeveloperStatusRejection),
		DeveloperRejectionRemarks: f.str(entity.FieldDeveloperRejectionRemarks),
	}

	if in.DeveloperDoneDate, err = f.date(entity.FieldDeveloperDoneDate); err != nil {
		return in, err
	}
	if in.AssignmentAttachments, err = f.attachments(entity.FieldAssignmentAttachment); err != nil {
		return in, err
	}
	if in.CompletionAttachments, err = f.attachments(entity.FieldCompletionAttachment); err != nil {
		return in, err
	}
	if in.DeveloperAttachments, err = f.attachments(entity.FieldDeveloperAttachment); err != nil {
		return in, err
	}
	return in, nil
}

func (f *formData) create(actor string) (service.CreateTaskInput, error) {
	in := service.CreateTaskInput{
		Code:        f.value(entity.FieldCode),
		CompanyID:   f.value(entity.FieldCompany),
		Working:     f.value(entity.FieldWorking),
		Priority:    f.value(entity.FieldPriority),
		TaskRemarks: f.value(entity.FieldTaskRemarks),
		Actor:       actor,
	}

	contact, err := f.contact()
	if err != nil {
		return in, err
	}
	if contact != nil {
		in.Contact = *contact
	}
	if in.DateTime, err = f.date(entity.FieldDateTime); err != nil {
		return in, err
	}
	if in.Files, err = f.uploads(entity.FieldTasksAttachment); err != nil {
		return in, err
	}
	return in, nil
}
