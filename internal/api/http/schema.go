package http

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mind-engage/web2scorm/internal/scorm"
)

// Types only; value rules belong to scorm.Record.Validate.
//
//go:embed record.schema.json
var recordSchemaJSON []byte

// RecordSchema compiles the JSON Schema for POST /packages bodies.
func RecordSchema() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(recordSchemaJSON))
}

// checkShape returns the schema violations of body. A non-nil error means
// body is not JSON at all.
func checkShape(s *gojsonschema.Schema, body []byte) ([]scorm.FieldError, error) {
	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if res.Valid() {
		return nil, nil
	}
	out := make([]scorm.FieldError, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		field := e.Field()
		if e.Type() == "required" {
			if p, ok := e.Details()["property"]; ok {
				field = fmt.Sprint(p)
			}
		}
		out = append(out, scorm.FieldError{Field: field, Reason: e.Description()})
	}
	return out, nil
}
