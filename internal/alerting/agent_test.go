package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley1208/ADK/internal/analysis"
)

func TestPriorityForRisk(t *testing.T) {
	assert.Equal(t, PriorityCritical, PriorityForRisk(analysis.RiskHigh))
	assert.Equal(t, PriorityHigh, PriorityForRisk(analysis.RiskMedium))
	assert.Equal(t, PriorityNormal, PriorityForRisk(analysis.RiskLow))
}

func TestBuildAlertHighRisk(t *testing.T) {
	agent := NewAgent()
	alert := agent.BuildAlert(&analysis.Result{
		OverallRiskLevel: analysis.RiskHigh,
		TotalReadings:    3,
		Analysis: []analysis.LocationAnalysis{
			{Location: "Lobby", RiskLevel: analysis.RiskLow},
			{Location: "Server Room", RiskLevel: analysis.RiskHigh},
			{Location: "Basement", RiskLevel: analysis.RiskHigh},
		},
		Timestamp: time.Now(),
	})

	assert.Equal(t, PriorityCritical, alert.Priority)
	assert.Equal(t, analysis.RiskHigh, alert.RiskLevel)
	assert.Equal(t, []string{"Server Room", "Basement"}, alert.HighRiskLocations)
	require.Len(t, alert.EmergencyActions, 5)
	assert.Equal(t, "IMMEDIATE EVACUATION required for affected areas", alert.EmergencyActions[0])
}

func TestBuildAlertMediumRisk(t *testing.T) {
	agent := NewAgent()
	alert := agent.BuildAlert(&analysis.Result{
		OverallRiskLevel: analysis.RiskMedium,
		Analysis: []analysis.LocationAnalysis{
			{Location: "Basement", RiskLevel: analysis.RiskMedium},
		},
	})

	assert.Equal(t, PriorityHigh, alert.Priority)
	assert.Empty(t, alert.HighRiskLocations)
	require.Len(t, alert.EmergencyActions, 5)
	assert.Equal(t, "Monitor situation closely for escalation", alert.EmergencyActions[0])
}

func TestBuildAlertLowRisk(t *testing.T) {
	agent := NewAgent()
	alert := agent.BuildAlert(&analysis.Result{
		OverallRiskLevel: analysis.RiskLow,
	})

	assert.Equal(t, PriorityNormal, alert.Priority)
	assert.Equal(t, []string{
		"Continue routine monitoring",
		"Log readings for trend analysis",
		"Maintain standard safety protocols",
	}, alert.EmergencyActions)
}
