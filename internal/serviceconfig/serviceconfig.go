// Package serviceconfig probes the connector service configuration file.
// The tooling only asserts the file is syntactically valid JSON; it is the
// service's own job to interpret the contents, so every structural
// observation here is a warning, never a failure.
package serviceconfig

import (
	"encoding/json"
	"os"
)

// Document mirrors the documented config shape. Connector and plugin config
// blocks stay raw: they are opaque to the tooling.
type Document struct {
	CarConnectivity *Section `json:"carConnectivity"`
}

// Section is the single top-level config object.
type Section struct {
	LogLevel   string  `json:"log_level"`
	Connectors []Entry `json:"connectors"`
	Plugins    []Entry `json:"plugins"`
}

// Entry is one connector or plugin declaration.
type Entry struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// Result reports the probe outcome. Exactly one of Missing/Malformed may be
// set; Warnings are advisory either way.
type Result struct {
	Path      string
	Missing   bool
	Malformed bool
	Err       error
	Warnings  []string
}

// OK reports whether the file exists and parses.
func (r Result) OK() bool {
	return !r.Missing && !r.Malformed
}

// Probe reads and parses the config file at path. It never returns an
// error: a missing or malformed file is a degraded result, matching the
// warning-only contract of the build procedure's config step.
func Probe(path string) Result {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.Missing = true
			return res
		}
		res.Malformed = true
		res.Err = err
		return res
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Malformed = true
		res.Err = err
		return res
	}

	if doc.CarConnectivity == nil {
		res.Warnings = append(res.Warnings, `missing top-level "carConnectivity" object`)
		return res
	}
	if len(doc.CarConnectivity.Connectors) == 0 {
		res.Warnings = append(res.Warnings, "no connectors declared; the service will have nothing to poll")
	}
	for _, c := range doc.CarConnectivity.Connectors {
		if c.Type == "" {
			res.Warnings = append(res.Warnings, "connector entry without a type")
		}
	}
	for _, p := range doc.CarConnectivity.Plugins {
		if p.Type == "" {
			res.Warnings = append(res.Warnings, "plugin entry without a type")
		}
	}
	return res
}
