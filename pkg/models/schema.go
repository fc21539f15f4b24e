package models

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed report.schema.json
var reportSchema []byte

const reportSchemaURL = "https://github.com/panbanda/pyscan/report.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(reportSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to decode report schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(reportSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add report schema: %w", err)
	}
	return c.Compile(reportSchemaURL)
})

// ReportSchema returns the JSON schema describing a serialized Report.
func ReportSchema() []byte {
	out := make([]byte, len(reportSchema))
	copy(out, reportSchema)
	return out
}

// ValidateReportJSON checks serialized report data against the report schema
// and the summary invariant (summary total equals the number of issues).
func ValidateReportJSON(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}
	return r.Check()
}

// Check verifies the report's structural invariants.
func (r *Report) Check() error {
	if got, want := r.Summary.Total(), len(r.Issues); got != want {
		return fmt.Errorf("summary counts %d issues, report lists %d", got, want)
	}
	for _, f := range r.Files {
		if f.CodeOnly != f.LOC-f.Blank-f.Comment {
			return fmt.Errorf("%s: codeOnly %d != LOC %d - blank %d - comment %d",
				f.File, f.CodeOnly, f.LOC, f.Blank, f.Comment)
		}
		for _, fn := range f.FunctionMetrics {
			if fn.Complexity < 1 {
				return fmt.Errorf("%s: function %q has complexity %d", f.File, fn.Name, fn.Complexity)
			}
		}
	}
	return nil
}
