package apihttp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const optionsSchema = `{
  "type": "object",
  "properties": {
    "preset": {"type": "string"},
    "title": {"type": "string"},
    "sortBy": {"type": "string"},
    "stacked": {"type": "boolean"},
    "horizontal": {"type": "boolean"},
    "percentage": {"type": "boolean"},
    "minorOrder": {"type": "array", "items": {"type": "string"}},
    "majorOrder": {"type": "array", "items": {"type": "string"}},
    "colors": {"type": "object", "additionalProperties": {"type": "string"}},
    "colorMode": {"enum": ["sample id", "Default", "tissue"]},
    "width": {"type": "integer", "minimum": 0},
    "height": {"type": "integer", "minimum": 0}
  }
}`

const recordsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["uniqueSampleKey"],
    "properties": {
      "uniqueSampleKey": {"type": "string", "minLength": 1},
      "value": {"type": ["string", "number", "boolean", "array", "null"]}
    }
  }
}`

const multiCategorySchema = `{
  "type": "object",
  "properties": {
    "horizontal": {"$ref": "records.json"},
    "vertical": {"$ref": "records.json"},
    "horizontalDatasetId": {"type": "string"},
    "verticalDatasetId": {"type": "string"},
    "horizontalLabel": {"type": "string"},
    "verticalLabel": {"type": "string"},
    "options": {"$ref": "options.json"}
  }
}`

const binsSchema = `{
  "type": "object",
  "properties": {
    "datasetId": {"type": "string"},
    "bins": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "count"],
        "properties": {
          "id": {"type": "string"},
          "count": {"type": "integer", "minimum": 0},
          "start": {"type": ["number", "null"]},
          "end": {"type": ["number", "null"]},
          "specialValue": {"type": "string"}
        }
      }
    },
    "options": {"$ref": "options.json"}
  }
}`

const boxPlotSchema = `{
  "type": "object",
  "required": ["groups"],
  "properties": {
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "observations": {"type": "array", "items": {"type": "object"}}
        }
      }
    },
    "filter": {
      "type": "object",
      "properties": {
        "samples": {"type": "array", "items": {"type": "string"}},
        "tissues": {"type": "array", "items": {"type": "string"}}
      }
    },
    "valueLabel": {"type": "string"},
    "options": {"$ref": "options.json"}
  }
}`

const datasetSchema = `{
  "type": "object",
  "required": ["kind", "payload"],
  "properties": {
    "id": {"type": "string"},
    "name": {"type": "string"},
    "kind": {"enum": ["attribute", "bins", "download"]},
    "payload": {"type": "array"}
  }
}`

var (
	multiCategoryRequestSchema = mustCompile("multi-category.json", multiCategorySchema)
	binsRequestSchema          = mustCompile("bins.json", binsSchema)
	boxPlotRequestSchema       = mustCompile("boxplot.json", boxPlotSchema)
	datasetRequestSchema       = mustCompile("dataset.json", datasetSchema)
)

func mustCompile(name, schema string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	resources := map[string]string{
		"options.json": optionsSchema,
		"records.json": recordsSchema,
		name:           schema,
	}
	for url, body := range resources {
		if err := c.AddResource(url, bytes.NewReader([]byte(body))); err != nil {
			panic(fmt.Sprintf("schema %s: %v", url, err))
		}
	}
	return c.MustCompile(name)
}

// decodeValidated checks raw against schema and then decodes it into dst.
func decodeValidated(raw []byte, schema *jsonschema.Schema, dst any) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
