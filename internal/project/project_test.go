package project

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskel/planfox/internal/apperr"
)

const sampleCSV = `Task_ID,Task_Name,Duration_Days,Resource_Name,Cost_Per_Day,Predecessors,Risk_Level
1,Task A,10,Alice,500,,High
2,Task B,15,Bob,600,1,Med
3,Task C,8,Alice,500,1,Low
4,Task D,12,Charlie,550,"2,3",High
5,Task E,20,Bob,600,,Med
`

func sampleTable(t *testing.T) *Table {
	t.Helper()
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return table
}

func TestParseCSV(t *testing.T) {
	table := sampleTable(t)

	assert.Equal(t, 5, table.Len())
	assert.Equal(t, []string{"Alice", "Bob", "Charlie"}, table.Resources())

	task, ok := table.Task(4)
	require.True(t, ok)
	assert.Equal(t, "Task D", task.Name)
	assert.Equal(t, []int{2, 3}, task.Predecessors)
	assert.Equal(t, RiskHigh, task.Risk)
	assert.InDelta(t, 12.0, task.Duration, 1e-9)
}

func TestParseCSV_ColumnOrderAndOptionalPredecessors(t *testing.T) {
	input := "Risk_Level,Resource_Name,Task_ID,Task_Name,Cost_Per_Day,Duration_Days\n" +
		"Low,Alice,7,Only,100,3.5\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	task, _ := table.Task(7)
	assert.Nil(t, task.Predecessors)
	assert.InDelta(t, 3.5, task.Duration, 1e-9)
}

func TestParseCSV_Errors(t *testing.T) {
	header := "Task_ID,Task_Name,Duration_Days,Resource_Name,Cost_Per_Day,Predecessors,Risk_Level\n"

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "empty task table"},
		{"missing column", "Task_ID,Task_Name\n1,A\n", "missing required column(s)"},
		{"zero duration", header + "1,A,0,Alice,500,,Low\n", "Duration_Days"},
		{"negative duration", header + "1,A,-3,Alice,500,,Low\n", "must be positive"},
		{"bad number", header + "1,A,ten,Alice,500,,Low\n", "invalid number"},
		{"negative cost", header + "1,A,3,Alice,-1,,Low\n", "Cost_Per_Day"},
		{"unknown risk", header + "1,A,3,Alice,1,,Extreme\n", "unknown risk level"},
		{"duplicate id", header + "1,A,3,Alice,1,,Low\n1,B,3,Bob,1,,Low\n", "duplicate task id 1"},
		{"bad id", header + "x,A,3,Alice,1,,Low\n", "invalid integer"},
		{"empty resource", header + "1,A,3,,1,,Low\n", "must not be empty"},
		{"bad predecessor", header + "1,A,3,Alice,1,abc,Low\n", "Predecessors"},
		{"NaN duration", header + "1,A,NaN,Alice,500,,Low\n", "line 2: Duration_Days"},
		{"Inf duration", header + "1,A,Inf,Alice,500,,Low\n", "line 2: Duration_Days"},
		{"+Inf duration", header + "1,A,+Inf,Alice,500,,Low\n", "invalid number \"+Inf\""},
		{"NaN cost", header + "1,A,10,Alice,NaN,,Low\n", "line 2: Cost_Per_Day"},
		{"Inf cost", header + "1,A,10,Alice,Inf,,Low\n", "line 2: Cost_Per_Day"},
		{"-Inf cost", header + "1,A,10,Alice,-Inf,,Low\n", "invalid number \"-Inf\""},
		{"overflowing cost", header + "1,A,10,Alice,1e999,,Low\n", "Cost_Per_Day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, apperr.IsInput(err), "expected input error, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseCSV_SkipsBlankRows(t *testing.T) {
	input := "Task_ID,Task_Name,Duration_Days,Resource_Name,Cost_Per_Day,Risk_Level\n" +
		"1,A,3,Alice,1,Low\n" +
		",,,,,\n" +
		"2,B,4,Bob,1,Medium\n"

	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	task, _ := table.Task(2)
	assert.Equal(t, RiskMedium, task.Risk)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	table, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestParsePredecessors(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"", nil},
		{"nan", nil},
		{"3", []int{3}},
		{"2, 3", []int{2, 3}},
		{"1.0,4", []int{1, 4}},
		{"5,", []int{5}},
	}

	for _, tt := range tests {
		got, err := ParsePredecessors(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestBaselines(t *testing.T) {
	table := sampleTable(t)

	// Alice 18, Bob 35, Charlie 12
	assert.InDelta(t, 35.0, table.ParallelBaseline(), 1e-9)
	assert.InDelta(t, 65.0, table.SequentialBaseline(), 1e-9)

	wantCost := 10*500.0 + 15*600.0 + 8*500.0 + 12*550.0 + 20*600.0
	assert.InDelta(t, wantCost, table.BaselineCost(), 1e-9)
}

func TestNewTable_CopiesInput(t *testing.T) {
	tasks := []Task{{ID: 1, Name: "A", Duration: 2, Resource: "R", Risk: RiskLow, Predecessors: []int{9}}}
	table, err := NewTable(tasks)
	require.NoError(t, err)

	tasks[0].Duration = 100
	tasks[0].Predecessors[0] = 42

	task, _ := table.Task(1)
	assert.InDelta(t, 2.0, task.Duration, 1e-9)
	assert.Equal(t, []int{9}, task.Predecessors)
}

func TestNewTable_RejectsInvalidRisk(t *testing.T) {
	_, err := NewTable([]Task{{ID: 1, Duration: 1, Resource: "R", Risk: "Extreme"}})
	require.Error(t, err)
	assert.True(t, apperr.IsInput(err))
}

func TestNewTable_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name  string
		task  Task
		field string
	}{
		{"NaN duration", Task{ID: 1, Duration: math.NaN(), Resource: "R", Risk: RiskLow}, "Duration_Days"},
		{"Inf duration", Task{ID: 1, Duration: math.Inf(1), Resource: "R", Risk: RiskLow}, "Duration_Days"},
		{"NaN cost", Task{ID: 1, Duration: 1, CostPerDay: math.NaN(), Resource: "R", Risk: RiskLow}, "Cost_Per_Day"},
		{"Inf cost", Task{ID: 1, Duration: 1, CostPerDay: math.Inf(1), Resource: "R", Risk: RiskLow}, "Cost_Per_Day"},
		{"-Inf cost", Task{ID: 1, Duration: 1, CostPerDay: math.Inf(-1), Resource: "R", Risk: RiskLow}, "Cost_Per_Day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable([]Task{tt.task})
			require.Error(t, err)
			assert.True(t, apperr.IsInput(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDanglingPredecessors(t *testing.T) {
	table, err := NewTable([]Task{
		{ID: 1, Duration: 1, Resource: "R", Risk: RiskLow},
		{ID: 2, Duration: 1, Resource: "R", Risk: RiskLow, Predecessors: []int{1, 99}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[int][]int{2: {99}}, table.DanglingPredecessors())

	err = table.CheckPredecessors()
	require.Error(t, err)
	assert.True(t, apperr.IsInput(err))
	assert.Contains(t, err.Error(), "task 2")

	clean := sampleTable(t)
	assert.Nil(t, clean.DanglingPredecessors())
	assert.NoError(t, clean.CheckPredecessors())
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(sampleTable(t))

	assert.Equal(t, 5, m.TotalTasks)
	assert.Equal(t, 3, m.NumResources)
	assert.InDelta(t, 65.0, m.TotalDuration, 1e-9)
	assert.Equal(t, 2, m.HighRiskCount)
	assert.Equal(t, 2, m.MedRiskCount)
	assert.Equal(t, 1, m.LowRiskCount)
	assert.Equal(t, 3, m.NumDependent)
	assert.Equal(t, 2, m.NumIndependent)
	assert.Equal(t, 1, m.ComplexTaskCount)
	assert.Equal(t, []int{4}, m.ComplexTasks)
	assert.Equal(t, []int{1, 4}, m.HighRiskTasks)

	require.Len(t, m.Resources, 3)
	assert.Equal(t, "Alice", m.Resources[0].Resource)
	assert.Equal(t, 2, m.Resources[0].TaskCount)
	assert.InDelta(t, 18.0, m.Resources[0].TotalDays, 1e-9)
	assert.InDelta(t, 9000.0, m.Resources[0].TotalCost, 1e-9)

	assert.InDelta(t, 5.0/3.0, m.AvgTasksPerResource, 1e-9)
	assert.Empty(t, m.Overloaded)
	assert.Empty(t, m.Underutilized)
}

func TestComputeMetrics_OverloadedAndUnderutilized(t *testing.T) {
	var tasks []Task
	for i := 1; i <= 8; i++ {
		tasks = append(tasks, Task{ID: i, Duration: 1, Resource: "Busy", Risk: RiskLow})
	}
	tasks = append(tasks,
		Task{ID: 9, Duration: 1, Resource: "Idle", Risk: RiskLow},
		Task{ID: 10, Duration: 1, Resource: "Mid", Risk: RiskLow},
		Task{ID: 11, Duration: 1, Resource: "Mid", Risk: RiskLow},
	)
	table, err := NewTable(tasks)
	require.NoError(t, err)

	// average = 11/3 ~ 3.67: Busy 8 > 5.5, Idle 1 < 1.83
	m := ComputeMetrics(table)
	assert.Equal(t, []string{"Busy"}, m.Overloaded)
	assert.Equal(t, []string{"Idle"}, m.Underutilized)
}

func TestComputeMetrics_Empty(t *testing.T) {
	table, err := NewTable(nil)
	require.NoError(t, err)

	m := ComputeMetrics(table)
	assert.Equal(t, 0, m.TotalTasks)
	assert.Equal(t, 0.0, m.AvgTasksPerResource)
	assert.Empty(t, m.Resources)
}
