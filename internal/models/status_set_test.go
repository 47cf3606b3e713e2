package models

import (
	"encoding/json"
	"testing"
)

func TestNewStatusSet(t *testing.T) {
	tests := []struct {
		name    string
		members []PaymentStatus
		want    string
	}{
		{name: "empty defaults to up to date", members: nil, want: "up_to_date"},
		{name: "single arrears", members: []PaymentStatus{StatusDuesArrears}, want: "dues_arrears"},
		{
			name:    "up to date dropped when arrears present",
			members: []PaymentStatus{StatusUpToDate, StatusMeterPlanArrears},
			want:    "meter_plan_arrears",
		},
		{
			name: "members render in stable order",
			members: []PaymentStatus{
				StatusInstallationPlanArrears, StatusDuesArrears, StatusMeterPlanArrears,
			},
			want: "dues_arrears,meter_plan_arrears,installation_plan_arrears",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewStatusSet(tt.members...)
			if got.String() != tt.want {
				t.Errorf("NewStatusSet(%v) = %q; want %q", tt.members, got, tt.want)
			}
		})
	}
}

func TestNormalizeExclusivity(t *testing.T) {
	// up_to_date must be present exactly when no arrears member is.
	for raw := StatusSet(0); raw < 16; raw++ {
		n := raw.Normalize()
		if n.Len() == 0 {
			t.Errorf("Normalize(%d) produced an empty set", raw)
		}
		if n.Has(StatusUpToDate) && n.Len() != 1 {
			t.Errorf("Normalize(%d) = %s mixes up_to_date with arrears", raw, n)
		}
	}
}

func TestStatusSetValueScanRoundTrip(t *testing.T) {
	sets := []StatusSet{
		NewStatusSet(),
		NewStatusSet(StatusDuesArrears),
		NewStatusSet(StatusDuesArrears, StatusMeterPlanArrears, StatusInstallationPlanArrears),
	}

	for _, original := range sets {
		v, err := original.Value()
		if err != nil {
			t.Fatalf("Value(%s): %v", original, err)
		}
		var scanned StatusSet
		if err := scanned.Scan(v); err != nil {
			t.Fatalf("Scan(%v): %v", v, err)
		}
		if scanned != original {
			t.Errorf("round trip: got %s, want %s", scanned, original)
		}
	}
}

func TestStatusSetScan(t *testing.T) {
	var s StatusSet
	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !s.Has(StatusUpToDate) {
		t.Errorf("Scan(nil) = %s; want up_to_date", s)
	}

	if err := s.Scan([]byte("dues_arrears, meter_plan_arrears")); err != nil {
		t.Fatalf("Scan bytes: %v", err)
	}
	if !s.Has(StatusDuesArrears) || !s.Has(StatusMeterPlanArrears) || s.Len() != 2 {
		t.Errorf("Scan bytes = %s", s)
	}

	if err := s.Scan("behind_on_everything"); err == nil {
		t.Error("unknown label accepted")
	}
	if err := s.Scan(42); err == nil {
		t.Error("non-string value accepted")
	}
}

func TestStatusSetJSON(t *testing.T) {
	set := NewStatusSet(StatusDuesArrears, StatusInstallationPlanArrears)

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `["dues_arrears","installation_plan_arrears"]`
	if string(data) != want {
		t.Errorf("Marshal = %s; want %s", data, want)
	}

	var back StatusSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != set {
		t.Errorf("round trip: got %s, want %s", back, set)
	}
}
