// Package alerting turns a risk assessment into an emergency response:
// a priority, recommended actions, and push alerts to subscribed operators.
package alerting

import (
	"time"

	"github.com/stanley1208/ADK/internal/analysis"
)

type Priority string

const (
	PriorityNormal   Priority = "NORMAL"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

const (
	agentName        = "emergency_alert_agent"
	agentDescription = "Agent specialized in emergency response coordination. Maps risk levels " +
		"to response priorities, recommends emergency actions, and notifies subscribed " +
		"operators of high-risk situations."
)

var actionsByRisk = map[analysis.RiskLevel][]string{
	analysis.RiskHigh: {
		"IMMEDIATE EVACUATION required for affected areas",
		"Deploy emergency response teams to high-risk locations",
		"Activate fire suppression systems if available",
		"Notify emergency services and local authorities",
		"Establish emergency communication protocols",
	},
	analysis.RiskMedium: {
		"Monitor situation closely for escalation",
		"Prepare evacuation plans for affected areas",
		"Alert emergency response teams to standby",
		"Increase sensor monitoring frequency",
		"Notify facility management and safety teams",
	},
	analysis.RiskLow: {
		"Continue routine monitoring",
		"Log readings for trend analysis",
		"Maintain standard safety protocols",
	},
}

// PriorityForRisk maps the analysis verdict to a response priority.
func PriorityForRisk(risk analysis.RiskLevel) Priority {
	switch risk {
	case analysis.RiskHigh:
		return PriorityCritical
	case analysis.RiskMedium:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// Alert is the emergency response recommendation for one pipeline run.
type Alert struct {
	RiskLevel         analysis.RiskLevel `json:"risk_level"`
	Priority          Priority           `json:"priority"`
	EmergencyActions  []string           `json:"emergency_actions"`
	HighRiskLocations []string           `json:"high_risk_locations,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
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

// BuildAlert derives the response recommendation from an analysis result.
func (a *Agent) BuildAlert(res *analysis.Result) *Alert {
	alert := &Alert{
		RiskLevel:        res.OverallRiskLevel,
		Priority:         PriorityForRisk(res.OverallRiskLevel),
		EmergencyActions: actionsByRisk[res.OverallRiskLevel],
		Timestamp:        time.Now(),
	}
	for _, la := range res.Analysis {
		if la.RiskLevel == analysis.RiskHigh {
			alert.HighRiskLocations = append(alert.HighRiskLocations, la.Location)
		}
	}
	return alert
}
