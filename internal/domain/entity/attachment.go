package entity

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// UploadsPrefix is the root of filesystem attachment paths
const UploadsPrefix = "/uploads/"

// TaskUploadsRoot holds one folder per task
const TaskUploadsRoot = "/uploads/tasks"

var blobIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// RefKind distinguishes the two attachment backends
type RefKind int

const (
	RefPath RefKind = iota
	RefBlob
)

// AttachmentRef points to a stored attachment: a path under /uploads or a blob id
type AttachmentRef struct {
	Kind  RefKind
	Value string
}

// ParseRef classifies a raw reference string by its shape
func ParseRef(raw string) AttachmentRef {
	raw = strings.TrimSpace(raw)
	if blobIDPattern.MatchString(raw) {
		return AttachmentRef{Kind: RefBlob, Value: raw}
	}
	return AttachmentRef{Kind: RefPath, Value: raw}
}

// IsBlob reports whether the reference addresses the blob store
func (r AttachmentRef) IsBlob() bool {
	return r.Kind == RefBlob
}

// IsPath reports whether the reference addresses the filesystem
func (r AttachmentRef) IsPath() bool {
	return r.Kind == RefPath
}

// Folder returns the task folder segment of a filesystem path, e.g. "abc" for /uploads/tasks/abc/x.pdf.
// Paths outside a task folder return "".
func (r AttachmentRef) Folder() string {
	if !r.IsPath() {
		return ""
	}
	dir := path.Dir(path.Clean(r.Value))
	if path.Dir(dir) != TaskUploadsRoot {
		return ""
	}
	return path.Base(dir)
}

func (r AttachmentRef) String() string {
	return r.Value
}

// RefList is a list of raw attachment references. It decodes from a bare string,
// an array, or a JSON-encoded string holding either.
type RefList []string

// Refs parses every entry into a typed reference
func (l RefList) Refs() []AttachmentRef {
	refs := make([]AttachmentRef, 0, len(l))
	for _, raw := range l {
		refs = append(refs, ParseRef(raw))
	}
	return refs
}

// Contains reports whether raw is present
func (l RefList) Contains(raw string) bool {
	for _, v := range l {
		if v == raw {
			return true
		}
	}
	return false
}

// Without returns entries of l absent from other
func (l RefList) Without(other RefList) RefList {
	var diff RefList
	for _, v := range l {
		if !other.Contains(v) {
			diff = append(diff, v)
		}
	}
	return diff
}

// FirstFolder returns the folder of the first filesystem entry, or ""
func (l RefList) FirstFolder() string {
	for _, ref := range l.Refs() {
		if folder := ref.Folder(); folder != "" {
			return folder
		}
	}
	return ""
}

// UnmarshalJSON accepts a string, an array, or a JSON string of either
func (l *RefList) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = NormalizeRefs(v)
	return nil
}

// UnmarshalBSONValue accepts legacy single-string records as well as arrays
func (l *RefList) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*l = nil
		return nil
	case bsontype.String:
		*l = NormalizeRefs(raw.StringValue())
		return nil
	case bsontype.Array:
		var items []interface{}
		if err := raw.Unmarshal(&items); err != nil {
			return err
		}
		*l = NormalizeRefs(items)
		return nil
	}
	return fmt.Errorf("cannot decode attachment list from bson %s", t)
}

// NormalizeRefs coerces a string, a list, or a JSON-encoded string containing either
// into a flat list, dropping empty and whitespace-only entries.
func NormalizeRefs(v interface{}) RefList {
	out := RefList{}
	appendNormalized(&out, v)
	return out
}

func appendNormalized(out *RefList, v interface{}) {
	switch val := v.(type) {
	case nil:
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return
		}
		if strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`) {
			var decoded interface{}
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				appendNormalized(out, decoded)
				return
			}
		}
		*out = append(*out, s)
	case []string:
		for _, item := range val {
			appendNormalized(out, item)
		}
	case RefList:
		for _, item := range val {
			appendNormalized(out, item)
		}
	case []interface{}:
		for _, item := range val {
			appendNormalized(out, item)
		}
	case bson.A:
		for _, item := range val {
			appendNormalized(out, item)
		}
	default:
		appendNormalized(out, fmt.Sprint(val))
	}
}

// MergeRefs concatenates lists, keeping first occurrence order and dropping duplicates
func MergeRefs(lists ...RefList) RefList {
	seen := make(map[string]bool)
	merged := RefList{}
	for _, list := range lists {
		for _, v := range NormalizeRefs(list) {
			if seen[v] {
				continue
			}
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}

// ParseRefs normalizes v and classifies every entry
func ParseRefs(v interface{}) []AttachmentRef {
	return NormalizeRefs(v).Refs()
}
