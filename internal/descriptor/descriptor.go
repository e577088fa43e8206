// Package descriptor loads and validates the agent deployment descriptor
// (agent_config.yaml) consumed by the hosting platform. The compiled
// input and output schemas also guard the pipeline API boundary.
package descriptor

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/stanley1208/ADK/pkg/cerr"
)

const (
	AgentName    = "disaster_response_agent"
	AgentVersion = "1.0.0"
)

type EntryPoint struct {
	Module string `yaml:"module" json:"module"`
	Object string `yaml:"object" json:"object"`
}

type Runtime struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Memory         string `yaml:"memory" json:"memory"`
	CPU            string `yaml:"cpu" json:"cpu"`
}

type Autoscaling struct {
	MinReplicas int `yaml:"min_replicas" json:"min_replicas"`
	MaxReplicas int `yaml:"max_replicas" json:"max_replicas"`
}

type HealthCheck struct {
	Path             string `yaml:"path" json:"path"`
	IntervalSeconds  int    `yaml:"interval_seconds" json:"interval_seconds"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	FailureThreshold int    `yaml:"failure_threshold" json:"failure_threshold"`
}

type Network struct {
	EgressAllowlist []string `yaml:"egress_allowlist" json:"egress_allowlist"`
}

// Descriptor is the parsed agent_config.yaml. Schemas stay as generic
// maps: they are JSON Schema documents, not Go structures.
type Descriptor struct {
	Name           string         `yaml:"name" json:"name"`
	Version        string         `yaml:"version" json:"version"`
	Description    string         `yaml:"description" json:"description"`
	EntryPoint     EntryPoint     `yaml:"entry_point" json:"entry_point"`
	Runtime        Runtime        `yaml:"runtime" json:"runtime"`
	Autoscaling    Autoscaling    `yaml:"autoscaling" json:"autoscaling"`
	HealthCheck    HealthCheck    `yaml:"health_check" json:"health_check"`
	IAMPermissions []string       `yaml:"iam_permissions" json:"iam_permissions"`
	Network        Network        `yaml:"network" json:"network"`
	InputSchema    map[string]any `yaml:"input_schema" json:"input_schema"`
	OutputSchema   map[string]any `yaml:"output_schema" json:"output_schema"`

	inputSchema  *gojsonschema.Schema
	outputSchema *gojsonschema.Schema
}

// Load reads, verifies and compiles the descriptor at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent descriptor %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Descriptor from raw YAML and runs the self-checks.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid agent descriptor YAML: %w", err)
	}
	if err := d.verify(); err != nil {
		return nil, err
	}
	if err := d.compileSchemas(); err != nil {
		return nil, err
	}
	return &d, nil
}

// verify runs the content assertions deploy tooling requires.
func (d *Descriptor) verify() error {
	if d.Name != AgentName {
		return fmt.Errorf("agent descriptor: name is %q, want %q", d.Name, AgentName)
	}
	if d.Version != AgentVersion {
		return fmt.Errorf("agent descriptor: version is %q, want %q", d.Version, AgentVersion)
	}
	if d.EntryPoint.Module == "" || d.EntryPoint.Object == "" {
		return fmt.Errorf("agent descriptor: entry_point module and object are required")
	}
	if d.InputSchema == nil {
		return fmt.Errorf("agent descriptor: input_schema is required")
	}
	if d.OutputSchema == nil {
		return fmt.Errorf("agent descriptor: output_schema is required")
	}
	return nil
}

func (d *Descriptor) compileSchemas() error {
	var err error
	if d.inputSchema, err = compileSchema(d.InputSchema); err != nil {
		return fmt.Errorf("agent descriptor: invalid input_schema: %w", err)
	}
	if d.outputSchema, err = compileSchema(d.OutputSchema); err != nil {
		return fmt.Errorf("agent descriptor: invalid output_schema: %w", err)
	}
	return nil
}

func compileSchema(schema map[string]any) (*gojsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
}

// ValidateInput checks a pipeline request body against the input schema.
func (d *Descriptor) ValidateInput(body []byte) error {
	return validate(d.inputSchema, body)
}

// ValidateOutput checks a pipeline response against the output schema.
func (d *Descriptor) ValidateOutput(body []byte) error {
	return validate(d.outputSchema, body)
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid JSON", err)
	}
	if result.Valid() {
		return nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return cerr.NewError(cerr.InvalidArgument,
		"schema validation failed: "+strings.Join(details, "; "), nil)
}
