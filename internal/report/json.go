package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

const jsonSchema = "spectre/v1"

type jsonEnvelope struct {
	Schema string `json:"$schema"`
	Data
}

// Generate writes the JSON envelope. With a Query set, each value the jq
// expression yields is written instead.
func (r *JSONReporter) Generate(data Data) error {
	return r.write(jsonEnvelope{Schema: jsonSchema, Data: data})
}

// GenerateAppService writes an App Service analysis, filtered by Query when
// set.
func (r *JSONReporter) GenerateAppService(a *AppServiceAnalysis) error {
	return r.write(a)
}

func (r *JSONReporter) write(v any) error {
	if r.Query == "" {
		return writeJSON(r.Writer, v)
	}

	query, err := gojq.Parse(r.Query)
	if err != nil {
		return fmt.Errorf("parse jq query: %w", err)
	}

	// gojq works on plain maps and slices, so round-trip through JSON.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}

	iter := query.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			return fmt.Errorf("run jq query: %w", err)
		}
		if err := writeJSON(r.Writer, out); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	return nil
}
