// Package analysis assesses fire risk from sensor readings. Each reading
// is scored independently and the overall risk is the worst location.
package analysis

import (
	"fmt"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/stanley1208/ADK/internal/sensor"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Thresholds for escalating a reading. Temperature is in Celsius,
// smoke level in percent.
const (
	HighTemperature   = 50.0
	HighSmokeLevel    = 70.0
	MediumTemperature = 35.0
	MediumSmokeLevel  = 40.0
)

const (
	agentName        = "risk_analysis_agent"
	agentDescription = "Agent specialized in analyzing sensor data for fire and safety risks. " +
		"Evaluates temperature and smoke levels per location and assigns Low, Medium or " +
		"High risk with the reasons behind each assessment."
)

// rank orders risk levels so the overall level is the maximum.
var rank = map[RiskLevel]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2}

// LocationAnalysis is the assessment of a single reading.
type LocationAnalysis struct {
	Location    string    `json:"location"`
	Temperature float64   `json:"temperature"`
	SmokeLevel  float64   `json:"smoke_level"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Reasons     []string  `json:"reasons"`
	Timestamp   string    `json:"timestamp,omitempty"`
}

// AgentInfo identifies which agent produced a result and when.
type AgentInfo struct {
	AgentName           string    `json:"agent_name"`
	AgentDescription    string    `json:"agent_description"`
	ProcessingTimestamp time.Time `json:"processing_timestamp"`
}

// Result aggregates per-location assessments into one verdict.
type Result struct {
	OverallRiskLevel RiskLevel          `json:"overall_risk_level"`
	TotalReadings    int                `json:"total_readings"`
	Analysis         []LocationAnalysis `json:"analysis"`
	AgentInfo        AgentInfo          `json:"agent_info"`
	Timestamp        time.Time          `json:"timestamp"`
}

type Agent struct {
	name        string
	description string
}

func NewAgent() *Agent {
	return &Agent{name: agentName, description: agentDescription}
}

func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }

// Analyze scores every reading and returns the aggregated result.
// Readings are independent, so they are scored concurrently.
func (a *Agent) Analyze(readings []sensor.Reading) *Result {
	now := time.Now()
	res := &Result{
		OverallRiskLevel: RiskLow,
		TotalReadings:    len(readings),
		Timestamp:        now,
		Analysis:         []LocationAnalysis{},
		AgentInfo: AgentInfo{
			AgentName:           a.name,
			AgentDescription:    a.description,
			ProcessingTimestamp: now,
		},
	}
	if len(readings) == 0 {
		return res
	}

	res.Analysis = iter.Map(readings, func(r *sensor.Reading) LocationAnalysis {
		return analyzeReading(*r)
	})
	for _, la := range res.Analysis {
		if rank[la.RiskLevel] > rank[res.OverallRiskLevel] {
			res.OverallRiskLevel = la.RiskLevel
		}
	}
	return res
}

func analyzeReading(r sensor.Reading) LocationAnalysis {
	la := LocationAnalysis{
		Location:    r.Location,
		Temperature: r.Temperature,
		SmokeLevel:  r.SmokeLevel,
		RiskLevel:   RiskLow,
		Timestamp:   r.Timestamp,
	}

	switch {
	case r.Temperature >= HighTemperature || r.SmokeLevel >= HighSmokeLevel:
		la.RiskLevel = RiskHigh
	case r.Temperature >= MediumTemperature || r.SmokeLevel >= MediumSmokeLevel:
		la.RiskLevel = RiskMedium
	}

	switch {
	case r.Temperature >= HighTemperature:
		la.Reasons = append(la.Reasons, fmt.Sprintf("Critical temperature: %.1f°C", r.Temperature))
	case r.Temperature >= MediumTemperature:
		la.Reasons = append(la.Reasons, fmt.Sprintf("Elevated temperature: %.1f°C", r.Temperature))
	}
	switch {
	case r.SmokeLevel >= HighSmokeLevel:
		la.Reasons = append(la.Reasons, fmt.Sprintf("Critical smoke level: %.1f%%", r.SmokeLevel))
	case r.SmokeLevel >= MediumSmokeLevel:
		la.Reasons = append(la.Reasons, fmt.Sprintf("Elevated smoke level: %.1f%%", r.SmokeLevel))
	}
	if len(la.Reasons) == 0 {
		la.Reasons = []string{"All readings within normal range"}
	}
	return la
}
