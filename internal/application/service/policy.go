package service

import (
	"fmt"
	"mime"
	"strings"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

// DefaultMaxFileBytes is the per-file upload ceiling
const DefaultMaxFileBytes int64 = 10 << 20

// Upload is one file received with a request
type Upload struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Size returns the length of the upload in bytes
func (u Upload) Size() int64 {
	return int64(len(u.Content))
}

// MediaType returns the content type without parameters
func (u Upload) MediaType() string {
	if u.ContentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(u.ContentType))
	}
	return mt
}

// AttachmentPolicy decides which uploads are accepted
type AttachmentPolicy struct {
	MaxFileBytes      int64
	AllowedMIMETypes  []string
	AllowedExtensions []string
}

// DefaultAttachmentPolicy accepts office documents, images, pdf, text and archives up to 10 MiB
func DefaultAttachmentPolicy() AttachmentPolicy {
	return AttachmentPolicy{
		MaxFileBytes: DefaultMaxFileBytes,
		AllowedMIMETypes: []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/vnd.ms-excel",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/vnd.ms-powerpoint",
			"application/vnd.openxmlformats-officedocument.presentationml.presentation",
			"text/plain", "text/csv",
			"application/zip", "application/x-zip-compressed", "application/x-rar-compressed",
		},
		AllowedExtensions: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp",
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
			".txt", ".csv", ".zip", ".rar",
		},
	}
}

// Validate accepts an upload whose MIME type or extension is allow-listed and whose size fits
func (p AttachmentPolicy) Validate(u Upload) error {
	field := u.Field
	if field == "" {
		field = "file"
	}

	if utils.SanitizeFileName(u.Filename) == "" {
		return &ValidationError{Field: field, Message: "file name is required"}
	}
	if !p.typeAllowed(u) {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("file %q has unsupported type %q", u.Filename, u.MediaType()),
		}
	}
	if p.MaxFileBytes > 0 && u.Size() > p.MaxFileBytes {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("file %q is %d bytes, limit is %d", u.Filename, u.Size(), p.MaxFileBytes),
		}
	}
	return nil
}

func (p AttachmentPolicy) typeAllowed(u Upload) bool {
	if mt := u.MediaType(); mt != "" {
		for _, allowed := range p.AllowedMIMETypes {
			if strings.EqualFold(mt, allowed) {
				return true
			}
		}
	}

	ext := utils.FileExtension(u.Filename)
	if ext == "" {
		return false
	}
	for _, allowed := range p.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
