package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/stanley1208/ADK/internal/alerting"
	"github.com/stanley1208/ADK/internal/analysis"
	"github.com/stanley1208/ADK/internal/bqlog"
	"github.com/stanley1208/ADK/internal/config"
	"github.com/stanley1208/ADK/internal/descriptor"
	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/internal/pipeline"
	runrepo "github.com/stanley1208/ADK/internal/run/repositoryimpl"
	sessionrepo "github.com/stanley1208/ADK/internal/session/repositoryimpl"
	"github.com/stanley1208/ADK/internal/sensor"
	"github.com/stanley1208/ADK/pkg/storage"
)

var (
	app = kingpin.New("disaster-response", "Disaster response sensor analysis pipeline")

	runCmd     = app.Command("run", "Run one pipeline pass over the data directory")
	runFile    = runCmd.Flag("file", "Specific sensor data file to process").String()
	runPattern = runCmd.Flag("pattern", "Glob pattern for sensor data files").Default("*.json").String()

	demoCmd = app.Command("demo", "Run the pipeline against built-in sample data")

	validateCmd  = app.Command("validate", "Validate the agent descriptor")
	validatePath = validateCmd.Flag("config", "Descriptor path").Default("agent_config.yaml").String()

	historyCmd      = app.Command("history", "Query the BigQuery reading history")
	historyLocation = historyCmd.Flag("location", "Filter by location").String()
	historyHours    = historyCmd.Flag("hours", "How many hours back to query").Default("24").Int()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch command {
	case runCmd.FullCommand():
		err = handleRun(*runFile, *runPattern)
	case demoCmd.FullCommand():
		err = handleDemo()
	case validateCmd.FullCommand():
		err = handleValidate(*validatePath)
	case historyCmd.FullCommand():
		err = handleHistory(*historyLocation, *historyHours)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleRun(file, pattern string) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	store, err := storage.NewLocalStorage(env.StorageEnv.BaseDir)
	if err != nil {
		return err
	}

	logger := newLogger(env)
	orch := pipeline.NewOrchestrator(
		env.DetectionEnv.DataDir,
		logger,
		sessionrepo.NewYAMLRepository(store),
		runrepo.NewYAMLRepository(store),
		eventbus.New(),
	)

	res := orch.Execute(context.Background(), pipeline.Request{
		FilePath: file,
		Pattern:  pattern,
	})

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if res.PipelineStatus == pipeline.StatusFailed {
		os.Exit(1)
	}
	return nil
}

// handleDemo analyzes three sample readings covering each risk level and
// prints the assessment in a readable form.
func handleDemo() error {
	bold := color.New(color.Bold)
	bold.Println("=== Disaster Response Pipeline Demo ===")
	fmt.Println()

	readings := []sensor.Reading{
		{Location: "Building A - Floor 3", Temperature: 25, SmokeLevel: 15, Timestamp: "2025-01-11T10:30:00Z"},
		{Location: "Building B - Basement", Temperature: 45, SmokeLevel: 55, Timestamp: "2025-01-11T10:31:00Z"},
		{Location: "Building C - Server Room", Temperature: 75, SmokeLevel: 85, Timestamp: "2025-01-11T10:32:00Z"},
	}

	fmt.Println("Sample sensor data:")
	for _, r := range readings {
		fmt.Printf("  %s: %.0f°C, %.0f%% smoke\n", r.Location, r.Temperature, r.SmokeLevel)
	}
	fmt.Println()

	analysisAgent := analysis.NewAgent()
	alertAgent := alerting.NewAgent()
	res := analysisAgent.Analyze(readings)
	alert := alertAgent.BuildAlert(res)

	fmt.Println("Analysis results:")
	fmt.Printf("  Overall risk level: %s\n", riskColor(res.OverallRiskLevel).Sprint(res.OverallRiskLevel))
	fmt.Printf("  Priority: %s\n", alert.Priority)
	fmt.Printf("  Readings processed: %d\n", res.TotalReadings)
	fmt.Println()

	fmt.Println("Per-location assessment:")
	for _, la := range res.Analysis {
		fmt.Printf("  %s: %s risk\n", la.Location, riskColor(la.RiskLevel).Sprint(la.RiskLevel))
		for _, reason := range la.Reasons {
			fmt.Printf("    - %s\n", reason)
		}
	}
	fmt.Println()

	fmt.Println("Recommended emergency actions:")
	for _, action := range alert.EmergencyActions {
		fmt.Printf("  - %s\n", action)
	}
	return nil
}

func riskColor(risk analysis.RiskLevel) *color.Color {
	switch risk {
	case analysis.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case analysis.RiskMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func handleValidate(path string) error {
	d, err := descriptor.Load(path)
	if err != nil {
		return err
	}
	color.Green("✓ %s is valid (agent %s, version %s)", path, d.Name, d.Version)
	return nil
}

func handleHistory(location string, hours int) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	logger := newLogger(env)
	if !logger.Enabled() {
		return fmt.Errorf("BigQuery logging is not configured (set GOOGLE_CLOUD_PROJECT or USE_MOCK_BIGQUERY)")
	}

	entries, err := logger.QueryHistory(context.Background(), location, hours)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No readings in the requested window.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-30s %6.1f°C %6.1f%% smoke\n",
			e.SensorTimestamp.Format("2006-01-02 15:04:05"), e.Location, e.Temperature, e.SmokeLevel)
	}
	return nil
}

func newLogger(env *config.Env) bqlog.Logger {
	if env.BigQueryEnv.UseMock {
		return bqlog.NewMock(env.GoogleCloudEnv.ProjectID, env.BigQueryEnv.DatasetID, env.BigQueryEnv.TableID)
	}
	if env.GoogleCloudEnv.ProjectID == "" {
		return bqlog.Disabled{}
	}
	client, err := bqlog.NewClient(context.Background(), &env.GoogleCloudEnv, &env.BigQueryEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: BigQuery unavailable, logging disabled: %v\n", err)
		return bqlog.Disabled{}
	}
	return client
}
