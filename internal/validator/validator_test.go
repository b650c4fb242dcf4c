package validator

import (
	"testing"

	"github.com/robert-at-pretension-io/devres/internal/devres"
	"github.com/robert-at-pretension-io/devres/internal/fabric"
	"github.com/robert-at-pretension-io/devres/internal/fabric/fabrictest"
	"github.com/robert-at-pretension-io/devres/internal/netlist/netlisttest"
	"github.com/robert-at-pretension-io/devres/internal/summary"
)

func TestFabricContractEnforcement(t *testing.T) {
	v, err := NewFabricValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(d *fabric.Description)
		wantErr bool
	}{
		{
			name:    "valid_description",
			mutate:  func(d *fabric.Description) {},
			wantErr: false,
		},
		{
			name: "invalid_bel_pin_direction",
			mutate: func(d *fabric.Description) {
				st := d.SiteTypes["IOB"]
				st.BELs[2].Pins[0].Dir = "in"
			},
			wantErr: true,
		},
		{
			name: "inout_site_pin",
			mutate: func(d *fabric.Description) {
				st := d.SiteTypes["IOB"]
				st.SitePins[0].Dir = "inout"
			},
			wantErr: true,
		},
		{
			name: "unknown_pip_kind",
			mutate: func(d *fabric.Description) {
				d.TileTypes["CLB"].PIPs[0].Kind = "sideways"
			},
			wantErr: true,
		},
		{
			name: "negative_row",
			mutate: func(d *fabric.Description) {
				d.Tiles[0].Row = -1
			},
			wantErr: true,
		},
		{
			name: "empty_node",
			mutate: func(d *fabric.Description) {
				d.Nodes = append(d.Nodes, []fabric.WireRef{})
			},
			wantErr: true,
		},
		{
			name: "empty_device_name",
			mutate: func(d *fabric.Description) {
				d.Name = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := fabrictest.Description()
			tt.mutate(desc)
			err := v.Validate(desc)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFabricValidateJSONRejectsUnknownFields(t *testing.T) {
	v, err := NewFabricValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	minimal := `{"name":"xc","series":"S","site_types":{},"tile_types":{},"tiles":[]}`
	if err := v.ValidateJSON([]byte(minimal)); err != nil {
		t.Fatalf("expected minimal description to pass, got %v", err)
	}

	extra := `{"name":"xc","series":"S","site_types":{},"tile_types":{},"tiles":[],"speed_models":[]}`
	if err := v.ValidateJSON([]byte(extra)); err == nil {
		t.Fatalf("expected unknown top-level field to fail")
	}

	if err := v.ValidateJSON([]byte("{")); err == nil {
		t.Fatalf("expected malformed JSON to fail")
	}
}

func TestFabricValidationErrors(t *testing.T) {
	v, err := NewFabricValidator()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	desc := fabrictest.Description()
	if errs := v.ValidationErrors(desc); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}

	desc.Tiles[0].Row = -1
	desc.Tiles[1].Col = -1
	errs := v.ValidationErrors(desc)
	if len(errs) == 0 {
		t.Fatalf("expected schema errors for negative coordinates")
	}
}

func buildSummary(t *testing.T) summary.Tables {
	t.Helper()
	dev, err := devres.NewBuilder(fabrictest.Memory(t, fabrictest.Description()), netlisttest.Libraries()).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return summary.BuildTables(dev, "xctest-1", []byte("artifact"))
}

func TestSummaryValidatorAcceptsBuiltTables(t *testing.T) {
	v, err := NewSummaryValidator()
	if err != nil {
		t.Fatalf("new summary validator: %v", err)
	}
	if err := v.Validate(buildSummary(t)); err != nil {
		t.Fatalf("expected valid summary, got error: %v", err)
	}
}

func TestSummaryValidatorRejectsInvalidTables(t *testing.T) {
	v, err := NewSummaryValidator()
	if err != nil {
		t.Fatalf("new summary validator: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *summary.Tables)
	}{
		{"bad_fingerprint", func(s *summary.Tables) { s.Fingerprint = "not-hex" }},
		{"bound_exceeds_pins", func(s *summary.Tables) { s.Packages[0].BoundPins = s.Packages[0].Pins + 1 }},
		{"last_input_below_range", func(s *summary.Tables) { s.SiteTypes[0].LastInput = -2 }},
		{"empty_device", func(s *summary.Tables) { s.Device = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := buildSummary(t)
			tt.mutate(&tables)
			if err := v.Validate(tables); err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if errs := v.ValidationErrors(tables); len(errs) == 0 {
				t.Fatalf("expected ValidationErrors to report the violation")
			}
		})
	}
}
