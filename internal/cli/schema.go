package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/afero"

	"github.com/kbukum/netclient/keypath"
)

// schemaErrors lists every failed keyword of a payload validation.
type schemaErrors []string

func (e schemaErrors) Error() string {
	return "payload does not match schema: " + strings.Join(e, "; ")
}

// compileSchema loads a JSON Schema document from fs.
func compileSchema(fs afero.Fs, path string) (*jsonschema.Schema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", path, err)
	}
	return schema, nil
}

// validatePayload checks a JSON payload against schema.
func validatePayload(schema *jsonschema.Schema, payload []byte) error {
	v, err := keypath.Parse(payload)
	if err != nil {
		return fmt.Errorf("payload is not JSON: %w", err)
	}
	err = schema.Validate(v.Interface())
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return collectSchemaErrors(ve, nil)
}

func collectSchemaErrors(ve *jsonschema.ValidationError, acc schemaErrors) schemaErrors {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		acc = append(acc, loc+": "+ve.Message)
	}
	for _, cause := range ve.Causes {
		acc = collectSchemaErrors(cause, acc)
	}
	return acc
}
