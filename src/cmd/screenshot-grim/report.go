package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"screenshot-grim/src/session"
)

var reportFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

type shotReport struct {
	Status   string  `json:"status" yaml:"status"`
	Mode     string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Geometry string  `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	Output   string  `json:"output,omitempty" yaml:"output,omitempty"`
	Width    int     `json:"width,omitempty" yaml:"width,omitempty"`
	Height   int     `json:"height,omitempty" yaml:"height,omitempty"`
	Format   string  `json:"format,omitempty" yaml:"format,omitempty"`
	Saved    string  `json:"saved,omitempty" yaml:"saved,omitempty"`
	Duration float64 `json:"duration_seconds" yaml:"duration_seconds"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func newReport(status session.Status, res session.Result, err error) *shotReport {
	rep := &shotReport{
		Status:   status.String(),
		Mode:     string(res.Mode),
		Geometry: res.Geometry,
		Output:   res.Output,
		Width:    res.Width,
		Height:   res.Height,
		Format:   res.Format,
		Duration: res.Duration.Seconds(),
	}
	if err != nil && status != session.StatusCancel {
		rep.Error = err.Error()
	}
	return rep
}

func (r *shotReport) write(w io.Writer, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	case "yaml":
		out, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode YAML output: %w", err)
		}
		if _, err := w.Write(out); err != nil {
			return err
		}
	default:
		// Plain text only speaks up on success; failures go to stderr.
		if r.Status != session.StatusSuccess.String() {
			return nil
		}
		where := r.Saved
		if where == "" {
			where = "delivered"
		}
		fmt.Fprintf(w, "%dx%d %s\n", r.Width, r.Height, where)
	}
	return nil
}
