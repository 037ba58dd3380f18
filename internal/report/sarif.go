package report

import (
	"fmt"
	"strings"

	"github.com/ppiankov/azspectre/internal/pricing"
	"github.com/ppiankov/azspectre/internal/resource"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// sarifReport is the top-level SARIF v2.1.0 structure.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string            `json:"id"`
	ShortDescription sarifMessage      `json:"shortDescription"`
	DefaultConfig    sarifDefaultLevel `json:"defaultConfiguration"`
}

type sarifDefaultLevel struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string         `json:"ruleId"`
	Level     string         `json:"level"`
	Message   sarifMessage   `json:"message"`
	Locations []sarifLoc     `json:"locations,omitempty"`
	Props     map[string]any `json:"properties,omitempty"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

// Generate writes SARIF v2.1.0 output.
func (r *SARIFReporter) Generate(data Data) error {
	results := make([]sarifResult, 0, data.TotalOrphans())

	for _, rep := range data.Reports {
		level := sarifLevel(pricing.ClassOf(rep.ResourceType))
		for _, o := range rep.OrphanedResources {
			results = append(results, sarifResult{
				RuleID:  ruleID(rep.ResourceType),
				Level:   level,
				Message: sarifMessage{Text: fmt.Sprintf("Orphaned %s: %s", rep.ResourceTypeName, o.Name)},
				Locations: []sarifLoc{
					{
						PhysicalLocation: sarifPhysical{
							ArtifactLocation: sarifArtifact{URI: "azure://" + strings.TrimPrefix(o.ID, "/")},
						},
					},
				},
				Props: map[string]any{
					"resourceName":  o.Name,
					"resourceGroup": o.ResourceGroup,
					"location":      o.Location,
				},
			})
		}
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    data.Tool,
						Version: data.Version,
						Rules:   buildSARIFRules(),
					},
				},
				Results: results,
			},
		},
	}
	return writeJSON(r.Writer, report)
}

func ruleID(t resource.Type) string {
	return "ORPHANED_" + strings.ToUpper(string(t))
}

func sarifLevel(c pricing.Class) string {
	switch c {
	case pricing.ClassCritical:
		return "error"
	case pricing.ClassCostBearing:
		return "warning"
	default:
		return "note"
	}
}

func buildSARIFRules() []sarifRule {
	infos := resource.All()
	rules := make([]sarifRule, 0, len(infos))
	for _, info := range infos {
		rules = append(rules, sarifRule{
			ID:               ruleID(info.Type),
			ShortDescription: sarifMessage{Text: "Orphaned " + info.Name},
			DefaultConfig:    sarifDefaultLevel{Level: sarifLevel(pricing.ClassOf(info.Type))},
		})
	}
	return rules
}
