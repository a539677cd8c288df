package transport

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ProductRef addresses a product either by its primary UUID or by the
// numeric id carried over from the migrated legacy catalog.
type ProductRef struct {
	ID       uuid.UUID
	LegacyID int64
	Legacy   bool
}

func ParseProductRef(s string) (ProductRef, error) {
	if id, err := uuid.Parse(s); err == nil {
		return ProductRef{ID: id}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ProductRef{LegacyID: n, Legacy: true}, nil
	}
	return ProductRef{}, fmt.Errorf("invalid product reference %q", s)
}

func (r ProductRef) String() string {
	if r.Legacy {
		return strconv.FormatInt(r.LegacyID, 10)
	}
	return r.ID.String()
}

func (r ProductRef) IsZero() bool {
	return !r.Legacy && r.ID == uuid.Nil
}

// UnmarshalJSON accepts either a JSON string ("<uuid>" or "42") or a bare
// JSON number; legacy clients send numeric ids both ways.
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ref, err := ParseProductRef(s)
		if err != nil {
			return err
		}
		*r = ref
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid product reference %s", data)
	}
	*r = ProductRef{LegacyID: n, Legacy: true}
	return nil
}

func (r ProductRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}
