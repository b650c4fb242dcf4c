package validator

// =============================================================================
// VALIDATOR PHILOSOPHY: CRASH EARLY, CRASH LOUD
// =============================================================================
//
// The CUE validators guard both ends of a conversion:
// - FabricValidator checks a device description before the builder walks it
// - SummaryValidator checks the relational summary before the policy engine
//   sees it
//
// A typo in a description ("dir": "in") or a renamed summary column would
// otherwise surface as a confusing integrity error deep in a build, or as a
// policy rule that silently never fires. A schema failure names the field.
//
// WHEN VALIDATION FAILS:
// 1. DON'T loosen the schema to make the error go away
// 2. DO check whether the description generator or the summary changed
// =============================================================================

import (
	"embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed fabric_schema.cue summary_schema.cue
var schemaFS embed.FS

// contract is one compiled schema file and the definition data is
// checked against.
type contract struct {
	ctx    *cue.Context
	schema cue.Value
	def    string
}

func newContract(file, def string) (*contract, error) {
	ctx := cuecontext.New()

	schemaBytes, err := schemaFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading embedded schema %s: %w", file, err)
	}

	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", file, schema.Err())
	}
	if d := schema.LookupPath(cue.ParsePath(def)); d.Err() != nil {
		return nil, fmt.Errorf("looking up %s definition: %w", def, d.Err())
	}

	return &contract{ctx: ctx, schema: schema, def: def}, nil
}

func (c *contract) unify(jsonBytes []byte) (cue.Value, error) {
	dataValue := c.ctx.CompileBytes(jsonBytes)
	if dataValue.Err() != nil {
		return cue.Value{}, fmt.Errorf("compiling JSON as CUE: %w", dataValue.Err())
	}
	return c.schema.LookupPath(cue.ParsePath(c.def)).Unify(dataValue), nil
}

func (c *contract) validateJSON(jsonBytes []byte) error {
	unified, err := c.unify(jsonBytes)
	if err != nil {
		return err
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s schema validation failed: %w", c.def, err)
	}
	return nil
}

func (c *contract) validate(data interface{}) error {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling data to JSON: %w", err)
	}
	return c.validateJSON(jsonBytes)
}

// errorList expands every CUE error of a failed validation.
func (c *contract) errorList(data interface{}) []string {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return []string{fmt.Sprintf("marshal error: %v", err)}
	}
	unified, err := c.unify(jsonBytes)
	if err != nil {
		return []string{err.Error()}
	}
	err = unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []string
	for _, e := range errors.Errors(err) {
		errs = append(errs, e.Error())
	}
	return errs
}

// FabricValidator validates device descriptions against #DeviceDescription.
type FabricValidator struct {
	c *contract
}

// NewFabricValidator creates a validator for device descriptions.
func NewFabricValidator() (*FabricValidator, error) {
	c, err := newContract("fabric_schema.cue", "#DeviceDescription")
	if err != nil {
		return nil, err
	}
	return &FabricValidator{c: c}, nil
}

// Validate checks a decoded description (normally a *fabric.Description).
func (v *FabricValidator) Validate(desc interface{}) error {
	return v.c.validate(desc)
}

// ValidateJSON checks raw description bytes, so fields unknown to the Go
// decoder are reported instead of dropped.
func (v *FabricValidator) ValidateJSON(jsonBytes []byte) error {
	return v.c.validateJSON(jsonBytes)
}

// ValidationErrors returns one line per schema violation.
func (v *FabricValidator) ValidationErrors(desc interface{}) []string {
	return v.c.errorList(desc)
}

// SummaryValidator validates summary tables against #Summary.
type SummaryValidator struct {
	c *contract
}

// NewSummaryValidator creates a validator for summary tables.
func NewSummaryValidator() (*SummaryValidator, error) {
	c, err := newContract("summary_schema.cue", "#Summary")
	if err != nil {
		return nil, err
	}
	return &SummaryValidator{c: c}, nil
}

// Validate checks that the summary conforms to the summary schema.
func (v *SummaryValidator) Validate(tables interface{}) error {
	return v.c.validate(tables)
}

// ValidationErrors returns one line per schema violation.
func (v *SummaryValidator) ValidationErrors(tables interface{}) []string {
	return v.c.errorList(tables)
}
