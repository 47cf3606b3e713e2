package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentStatus is one member of a connection's payment-status set.
type PaymentStatus uint8

const (
	StatusUpToDate PaymentStatus = 1 << iota
	StatusDuesArrears
	StatusMeterPlanArrears
	StatusInstallationPlanArrears
)

var statusLabels = map[PaymentStatus]string{
	StatusUpToDate:                "up_to_date",
	StatusDuesArrears:             "dues_arrears",
	StatusMeterPlanArrears:        "meter_plan_arrears",
	StatusInstallationPlanArrears: "installation_plan_arrears",
}

// ordered list for deterministic serialization
var statusOrder = []PaymentStatus{
	StatusUpToDate,
	StatusDuesArrears,
	StatusMeterPlanArrears,
	StatusInstallationPlanArrears,
}

func (s PaymentStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// StatusSet is the derived payment standing of a connection, stored as a
// bit-flag set. Invariant: up_to_date is present iff no other member is.
type StatusSet uint8

// NewStatusSet builds a normalized set from the given members.
func NewStatusSet(members ...PaymentStatus) StatusSet {
	var s StatusSet
	for _, m := range members {
		s |= StatusSet(m)
	}
	return s.Normalize()
}

// Add returns the set with the member included. Does not normalize.
func (s StatusSet) Add(m PaymentStatus) StatusSet {
	return s | StatusSet(m)
}

// Has reports whether the member is in the set.
func (s StatusSet) Has(m PaymentStatus) bool {
	return s&StatusSet(m) != 0
}

// Len returns the number of members.
func (s StatusSet) Len() int {
	n := 0
	for _, m := range statusOrder {
		if s.Has(m) {
			n++
		}
	}
	return n
}

// Normalize enforces the set invariant: an empty set becomes {up_to_date},
// and up_to_date is stripped as soon as any arrears member is present.
func (s StatusSet) Normalize() StatusSet {
	arrears := s &^ StatusSet(StatusUpToDate)
	if arrears != 0 {
		return arrears
	}
	return StatusSet(StatusUpToDate)
}

// Members returns the set in stable order.
func (s StatusSet) Members() []PaymentStatus {
	var out []PaymentStatus
	for _, m := range statusOrder {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (s StatusSet) String() string {
	labels := make([]string, 0, 4)
	for _, m := range s.Members() {
		labels = append(labels, m.String())
	}
	return strings.Join(labels, ",")
}

// Value implements driver.Valuer so the set persists as a comma-joined list.
func (s StatusSet) Value() (driver.Value, error) {
	return s.Normalize().String(), nil
}

// Scan implements sql.Scanner.
func (s *StatusSet) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*s = NewStatusSet()
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into StatusSet", value)
	}

	var set StatusSet
	for _, label := range strings.Split(raw, ",") {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		found := false
		for member, l := range statusLabels {
			if l == label {
				set = set.Add(member)
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown payment status %q", label)
		}
	}
	*s = set.Normalize()
	return nil
}

// MarshalJSON renders the set as a sorted array of labels.
func (s StatusSet) MarshalJSON() ([]byte, error) {
	labels := make([]string, 0, 4)
	for _, m := range s.Normalize().Members() {
		labels = append(labels, m.String())
	}
	return json.Marshal(labels)
}

// UnmarshalJSON accepts an array of labels.
func (s *StatusSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	return s.Scan(strings.Join(labels, ","))
}
