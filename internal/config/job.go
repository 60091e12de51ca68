package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/valpere/csvtran/internal/placeholder"
)

// Job lists the per-column options of a translation job.
//
//	set_columns: [tags]
//	exclude_columns: [sku]
//	json_fields:
//	  attributes:
//	    translate_keys: true
//	    translate_values: true
type Job struct {
	SetColumns     []string
	ExcludeColumns []string
	JSONFields     map[string]placeholder.JSONOptions
}

type jobFile struct {
	SetColumns     []string             `yaml:"set_columns,omitempty"`
	ExcludeColumns []string             `yaml:"exclude_columns,omitempty"`
	JSONFields     map[string]jsonField `yaml:"json_fields,omitempty"`
}

// jsonField leaves unset options nil so their defaults can apply.
type jsonField struct {
	TranslateKeys   *bool `yaml:"translate_keys,omitempty"`
	TranslateValues *bool `yaml:"translate_values,omitempty"`
}

// ConfiguredJSONDefaults apply to a column named in json_fields or
// --json-field without explicit options: keys are translated, values are not.
var ConfiguredJSONDefaults = placeholder.JSONOptions{Keys: true, Values: false}

// LoadJob reads a YAML job file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	return ParseJob(data)
}

// ParseJob decodes a YAML job document.
func ParseJob(data []byte) (*Job, error) {
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse job file: %w", err)
	}

	job := &Job{
		SetColumns:     f.SetColumns,
		ExcludeColumns: f.ExcludeColumns,
		JSONFields:     make(map[string]placeholder.JSONOptions, len(f.JSONFields)),
	}
	for col, field := range f.JSONFields {
		opts := ConfiguredJSONDefaults
		if field.TranslateKeys != nil {
			opts.Keys = *field.TranslateKeys
		}
		if field.TranslateValues != nil {
			opts.Values = *field.TranslateValues
		}
		job.JSONFields[col] = opts
	}
	return job, nil
}

// Marshal encodes j as a job document. JSON options are written out in full
// so the document does not depend on ConfiguredJSONDefaults.
func (j *Job) Marshal() (string, error) {
	f := jobFile{SetColumns: j.SetColumns, ExcludeColumns: j.ExcludeColumns}
	if len(j.JSONFields) > 0 {
		f.JSONFields = make(map[string]jsonField, len(j.JSONFields))
		for col, opts := range j.JSONFields {
			keys, values := opts.Keys, opts.Values
			f.JSONFields[col] = jsonField{TranslateKeys: &keys, TranslateValues: &values}
		}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("failed to encode job options: %w", err)
	}
	return string(data), nil
}

// ParseJSONField parses a --json-field value: "column" alone takes the
// configured defaults, "column=keys", "column=values" or
// "column=keys,values" name the parts to translate.
func ParseJSONField(s string) (string, placeholder.JSONOptions, error) {
	col, parts, hasParts := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if col == "" {
		return "", placeholder.JSONOptions{}, fmt.Errorf("invalid --json-field %q: missing column", s)
	}
	if !hasParts {
		return col, ConfiguredJSONDefaults, nil
	}

	var opts placeholder.JSONOptions
	for _, p := range strings.Split(parts, ",") {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "keys":
			opts.Keys = true
		case "values":
			opts.Values = true
		case "", "none":
		default:
			return "", placeholder.JSONOptions{}, fmt.Errorf("invalid --json-field %q: unknown part %q", s, p)
		}
	}
	return col, opts, nil
}

// Merge adds the options of other to j; entries of other win.
func (j *Job) Merge(other *Job) {
	if other == nil {
		return
	}
	j.SetColumns = append(j.SetColumns, other.SetColumns...)
	j.ExcludeColumns = append(j.ExcludeColumns, other.ExcludeColumns...)
	if j.JSONFields == nil {
		j.JSONFields = make(map[string]placeholder.JSONOptions, len(other.JSONFields))
	}
	for col, opts := range other.JSONFields {
		j.JSONFields[col] = opts
	}
}
