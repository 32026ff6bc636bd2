package project

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/haskel/planfox/internal/apperr"
)

// Column names of the task table.
const (
	ColTaskID       = "Task_ID"
	ColTaskName     = "Task_Name"
	ColDuration     = "Duration_Days"
	ColResource     = "Resource_Name"
	ColCostPerDay   = "Cost_Per_Day"
	ColPredecessors = "Predecessors"
	ColRiskLevel    = "Risk_Level"
)

var requiredColumns = []string{
	ColTaskID,
	ColTaskName,
	ColDuration,
	ColResource,
	ColCostPerDay,
	ColRiskLevel,
}

// LoadCSV reads a task table from a CSV file.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task table: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads a task table from r. Column order is free; Predecessors is
// optional. Rows that are entirely blank are skipped.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.Input("parse csv", "header", "empty task table")
		}
		return nil, apperr.Input("parse csv", "header", "%v", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Input("parse csv", "header", "missing required column(s): %s", strings.Join(missing, ", "))
	}

	var tasks []Task
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperr.Input("parse csv", fmt.Sprintf("line %d", line), "%v", err)
		}
		if isBlank(record) {
			continue
		}

		task, err := parseRecord(record, cols, line)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return NewTable(tasks)
}

func parseRecord(record []string, cols map[string]int, line int) (Task, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	where := func(name string) string {
		return fmt.Sprintf("line %d: %s", line, name)
	}

	var task Task

	id, err := parseInt(field(ColTaskID))
	if err != nil {
		return task, apperr.Input("parse csv", where(ColTaskID), "%v", err)
	}
	task.ID = id

	task.Name = field(ColTaskName)
	task.Resource = field(ColResource)
	if task.Resource == "" {
		return task, apperr.Input("parse csv", where(ColResource), "must not be empty")
	}

	task.Duration, err = parseAmount(field(ColDuration))
	if err != nil {
		return task, apperr.Input("parse csv", where(ColDuration), "invalid number %q", field(ColDuration))
	}
	if !(task.Duration > 0) {
		return task, apperr.Input("parse csv", where(ColDuration), "must be positive, got %v", task.Duration)
	}

	task.CostPerDay, err = parseAmount(field(ColCostPerDay))
	if err != nil {
		return task, apperr.Input("parse csv", where(ColCostPerDay), "invalid number %q", field(ColCostPerDay))
	}
	if task.CostPerDay < 0 {
		return task, apperr.Input("parse csv", where(ColCostPerDay), "must be non-negative, got %v", task.CostPerDay)
	}

	task.Risk, err = ParseRiskLevel(field(ColRiskLevel))
	if err != nil {
		return task, apperr.Input("parse csv", where(ColRiskLevel), "unknown risk level %q (valid: Low, Med, High)", field(ColRiskLevel))
	}

	task.Predecessors, err = ParsePredecessors(field(ColPredecessors))
	if err != nil {
		return task, apperr.Input("parse csv", where(ColPredecessors), "%v", err)
	}

	return task, nil
}

// ParsePredecessors parses a comma-separated id list. Blank input and the
// pandas-style "nan" marker mean no predecessors.
func ParsePredecessors(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}

	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parseInt(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseAmount parses a finite decimal. ParseFloat alone accepts NaN and Inf.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parseInt accepts integral floats such as "3.0", which spreadsheet exports
// commonly produce.
func parseInt(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
