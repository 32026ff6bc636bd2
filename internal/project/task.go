package project

import (
	"strings"

	"github.com/haskel/planfox/internal/apperr"
)

// RiskLevel is a task's uncertainty category.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Med"
	RiskHigh   RiskLevel = "High"
)

// ParseRiskLevel accepts the table spellings Low, Med and High. "Medium" is
// accepted as an alias of Med.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.TrimSpace(s) {
	case "Low":
		return RiskLow, nil
	case "Med", "Medium":
		return RiskMedium, nil
	case "High":
		return RiskHigh, nil
	}
	return "", apperr.Input("parse risk level", "", "unknown risk level %q (valid: Low, Med, High)", s)
}

// IsValid checks if the risk level is one of the known levels.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// String returns string representation.
func (r RiskLevel) String() string {
	return string(r)
}

// Task is one row of the project task table.
type Task struct {
	ID           int       `json:"task_id"`
	Name         string    `json:"task_name"`
	Duration     float64   `json:"duration_days"`
	Resource     string    `json:"resource_name"`
	CostPerDay   float64   `json:"cost_per_day"`
	Predecessors []int     `json:"predecessors,omitempty"`
	Risk         RiskLevel `json:"risk_level"`
}

// PlannedCost is duration times cost rate.
func (t Task) PlannedCost() float64 {
	return t.Duration * t.CostPerDay
}
