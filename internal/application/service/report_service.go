package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

const reportSheet = "Tasks"

var reportColumns = []struct {
	title string
	width float64
	value func(t *entity.Task) interface{}
}{
	{"Code", 14, func(t *entity.Task) interface{} { return t.Code }},
	{"Company", 28, func(t *entity.Task) interface{} { return t.Company.Name }},
	{"City", 16, func(t *entity.Task) interface{} { return t.Company.City }},
	{"Contact", 20, func(t *entity.Task) interface{} { return t.Contact.Name }},
	{"Phone", 16, func(t *entity.Task) interface{} { return t.Contact.Phone }},
	{"Working", 40, func(t *entity.Task) interface{} { return t.Working }},
	{"Priority", 10, func(t *entity.Task) interface{} { return t.Priority }},
	{"Status", 12, func(t *entity.Task) interface{} { return t.Status }},
	{"Final Status", 12, func(t *entity.Task) interface{} { return t.FinalStatus }},
	{"Assigned To", 20, func(t *entity.Task) interface{} {
		if t.AssignedTo == nil {
			return ""
		}
		return t.AssignedTo.Name
	}},
	{"Assigned", 20, func(t *entity.Task) interface{} { return formatTime(t.AssignedDate) }},
	{"Completed", 20, func(t *entity.Task) interface{} { return formatTime(t.CompletionApprovedAt) }},
	{"Time Taken (h)", 14, func(t *entity.Task) interface{} {
		if t.TimeTaken == nil {
			return ""
		}
		return float64(*t.TimeTaken) / float64(time.Hour/time.Millisecond)
	}},
	{"Unposted", 10, func(t *entity.Task) interface{} { return t.Unposted }},
	{"Attachments", 12, func(t *entity.Task) interface{} { return len(t.AllAttachments()) }},
	{"Created", 20, func(t *entity.Task) interface{} { return formatTime(&t.CreatedAt) }},
}

// ReportService exports task lists as spreadsheets
type ReportService interface {
	ExportTasks(ctx context.Context, filter port.TaskFilter, w io.Writer) (int, error)
}

type reportServiceImpl struct {
	tasks  port.TaskRepository
	logger Logger
}

// NewReportService creates a new ReportService
func NewReportService(tasks port.TaskRepository, logger Logger) ReportService {
	return &reportServiceImpl{tasks: tasks, logger: logger}
}

// ExportTasks writes an xlsx workbook of the matching tasks to w and returns the row count
func (s *reportServiceImpl) ExportTasks(ctx context.Context, filter port.TaskFilter, w io.Writer) (int, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list tasks for report", "error", err)
		return 0, &PersistenceError{Err: err}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return 0, fmt.Errorf("create header style: %w", err)
	}

	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		s.setCell(f, cell, col.title)

		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(reportSheet, name, name, col.width); err != nil {
			return 0, fmt.Errorf("set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(reportColumns), 1)
	if err := f.SetCellStyle(reportSheet, "A1", last, headerStyle); err != nil {
		return 0, fmt.Errorf("style header: %w", err)
	}

	for r, task := range tasks {
		for c, col := range reportColumns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			s.setCell(f, cell, col.value(task))
		}
	}

	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return 0, fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Task report exported", "rows", len(tasks))
	return len(tasks), nil
}

func (s *reportServiceImpl) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(reportSheet, cell, value); err != nil {
		s.logger.Error("Failed to set cell", "error", err, "cell", cell)
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
