package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed papers.schema.json
var papersSchemaJSON string

//go:embed categories.schema.json
var categoriesSchemaJSON string

var (
	compileOnce        sync.Once
	papersSchema       *jsonschema.Schema
	categoriesSchema   *jsonschema.Schema
	compiledSchemasErr error
)

func loadSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("papers.schema.json", strings.NewReader(papersSchemaJSON)); err != nil {
			compiledSchemasErr = fmt.Errorf("add papers schema resource: %w", err)
			return
		}
		if err := compiler.AddResource("categories.schema.json", strings.NewReader(categoriesSchemaJSON)); err != nil {
			compiledSchemasErr = fmt.Errorf("add categories schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("papers.schema.json")
		if err != nil {
			compiledSchemasErr = fmt.Errorf("compile papers schema: %w", err)
			return
		}
		papersSchema = schema

		schema, err = compiler.Compile("categories.schema.json")
		if err != nil {
			compiledSchemasErr = fmt.Errorf("compile categories schema: %w", err)
			return
		}
		categoriesSchema = schema
	})
	return compiledSchemasErr
}

// validatePapersDocument checks a raw papers.json document against the
// catalog schema before it is trusted.
func validatePapersDocument(raw []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	value, err := decodeJSONValue(raw)
	if err != nil {
		return err
	}
	if err := papersSchema.Validate(value); err != nil {
		return fmt.Errorf("papers document invalid: %w", err)
	}
	return nil
}

func validateCategoriesDocument(raw []byte) error {
	if err := loadSchemas(); err != nil {
		return err
	}
	value, err := decodeJSONValue(raw)
	if err != nil {
		return err
	}
	if err := categoriesSchema.Validate(value); err != nil {
		return fmt.Errorf("categories document invalid: %w", err)
	}
	return nil
}

func decodeJSONValue(raw []byte) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return value, nil
}
