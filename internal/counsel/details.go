package counsel

import (
	"encoding/json"
	"fmt"
)

// StudentDetails is the per-request student profile. The core treats it as an
// opaque mapping; field validation happens at the HTTP boundary.
type StudentDetails map[string]any

// Serialize renders the details deterministically for prompt embedding.
// json.Marshal sorts map keys, so equal maps serialize equally.
func (d StudentDetails) Serialize() (string, error) {
	out, err := json.MarshalIndent(map[string]any(d), "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize student details: %w", err)
	}
	return string(out), nil
}

// LenderQuery derives the lender search string from the destination country
// and requested amount.
func (d StudentDetails) LenderQuery() string {
	return fmt.Sprintf("%v %v", d["destination_country"], d["loan_amount_needed"])
}
