package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind RefKind
	}{
		{"blob id", "64b7f0c2a1d3e4f5a6b7c8d9", RefBlob},
		{"blob id uppercase", "64B7F0C2A1D3E4F5A6B7C8D9", RefBlob},
		{"uploads path", "/uploads/tasks/1700000000-ab12/report.pdf", RefPath},
		{"23 hex chars", "64b7f0c2a1d3e4f5a6b7c8d", RefPath},
		{"25 hex chars", "64b7f0c2a1d3e4f5a6b7c8d9a", RefPath},
		{"hex with padding", "  64b7f0c2a1d3e4f5a6b7c8d9 ", RefBlob},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKind, ParseRef(tt.raw).Kind)
		})
	}
}

func TestAttachmentRef_Folder(t *testing.T) {
	assert.Equal(t, "abc", ParseRef("/uploads/tasks/abc/x.pdf").Folder())
	assert.Equal(t, "", ParseRef("/uploads/x.pdf").Folder())
	assert.Equal(t, "", ParseRef("64b7f0c2a1d3e4f5a6b7c8d9").Folder())
	assert.Equal(t, "", ParseRef("relative/x.pdf").Folder())
	assert.Equal(t, "", ParseRef("/uploads/other/abc/x.pdf").Folder())
	assert.Equal(t, "", ParseRef("/uploads/tasks/x.pdf").Folder())
	assert.Equal(t, "", ParseRef("/uploads/tasks/abc/nested/x.pdf").Folder())
	assert.Equal(t, "abc", ParseRef("/uploads/tasks/../tasks/abc/x.pdf").Folder())
}

func TestNormalizeRefs_Shapes(t *testing.T) {
	want := RefList{"/uploads/tasks/a/1.pdf", "64b7f0c2a1d3e4f5a6b7c8d9"}

	tests := []struct {
		name  string
		input interface{}
	}{
		{"string list", []string{"/uploads/tasks/a/1.pdf", "64b7f0c2a1d3e4f5a6b7c8d9"}},
		{"interface list", []interface{}{"/uploads/tasks/a/1.pdf", " ", "64b7f0c2a1d3e4f5a6b7c8d9"}},
		{"json string", `["/uploads/tasks/a/1.pdf","","64b7f0c2a1d3e4f5a6b7c8d9"]`},
		{"nested json inside list", []string{`["/uploads/tasks/a/1.pdf"]`, "64b7f0c2a1d3e4f5a6b7c8d9"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, want, NormalizeRefs(tt.input))
		})
	}
}

func TestNormalizeRefs_BareString(t *testing.T) {
	assert.Equal(t, RefList{"/uploads/tasks/a/1.pdf"}, NormalizeRefs("/uploads/tasks/a/1.pdf"))
	assert.Equal(t, RefList{"/uploads/tasks/a/1.pdf"}, NormalizeRefs(`"/uploads/tasks/a/1.pdf"`))
	assert.Equal(t, RefList{}, NormalizeRefs("   "))
	assert.Equal(t, RefList{}, NormalizeRefs(nil))
}

func TestNormalizeRefs_Idempotent(t *testing.T) {
	inputs := []interface{}{
		[]string{"a", " b ", ""},
		`["x","y"]`,
		"[not json",
		"single",
	}

	for _, in := range inputs {
		once := NormalizeRefs(in)
		twice := NormalizeRefs(once)
		assert.Equal(t, once, twice)
	}
}

func TestMergeRefs(t *testing.T) {
	existing := RefList{"/uploads/tasks/a/1.pdf", "/uploads/tasks/a/2.pdf"}
	added := RefList{"/uploads/tasks/a/2.pdf", "/uploads/tasks/a/3.pdf"}

	merged := MergeRefs(existing, added)

	assert.Equal(t, RefList{"/uploads/tasks/a/1.pdf", "/uploads/tasks/a/2.pdf", "/uploads/tasks/a/3.pdf"}, merged)
}

func TestRefList_Without(t *testing.T) {
	a := RefList{"p1", "p2", "b1"}
	b := RefList{"p1"}
	assert.Equal(t, RefList{"p2", "b1"}, a.Without(b))
	assert.Nil(t, b.Without(a))
}

func TestRefList_UnmarshalJSON(t *testing.T) {
	var holder struct {
		Files RefList `json:"files"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"files":"/uploads/tasks/a/1.pdf"}`), &holder))
	assert.Equal(t, RefList{"/uploads/tasks/a/1.pdf"}, holder.Files)

	require.NoError(t, json.Unmarshal([]byte(`{"files":["x","","y"]}`), &holder))
	assert.Equal(t, RefList{"x", "y"}, holder.Files)
}

func TestRefList_UnmarshalBSONLegacyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"TasksAttachment": "/uploads/tasks/a/1.pdf", "code": "T-1"})
	require.NoError(t, err)

	var task Task
	require.NoError(t, bson.Unmarshal(raw, &task))

	assert.Equal(t, "T-1", task.Code)
	assert.Equal(t, RefList{"/uploads/tasks/a/1.pdf"}, task.TasksAttachment)
}

func TestRefList_UnmarshalBSONArray(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"assignmentAttachment": bson.A{"64b7f0c2a1d3e4f5a6b7c8d9", ""}})
	require.NoError(t, err)

	var task Task
	require.NoError(t, bson.Unmarshal(raw, &task))

	assert.Equal(t, RefList{"64b7f0c2a1d3e4f5a6b7c8d9"}, task.AssignmentAttachment)
}

func TestTask_ArchiveName(t *testing.T) {
	task := &Task{Code: "T-42"}
	assert.Equal(t, "task-T-42-assignment-attachments.zip", task.ArchiveName(CategoryAssignment))

	noCode := &Task{}
	assert.Contains(t, noCode.ArchiveName(CategoryCompletion), "-completion-attachments.zip")
}
