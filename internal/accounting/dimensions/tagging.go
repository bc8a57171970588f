package dimensions

import (
	ledgererrs "github.com/odyssey-erp/ledger/internal/accounting/shared"
	"github.com/odyssey-erp/ledger/internal/shared"
)

// BuildTag checks that value may be attached to the line and returns the tag to
// persist. When the line already carries the same value the existing tag is
// returned with existed=true; a different value of the same dimension yields a
// DuplicateDimensionError.
func BuildTag(line LineRef, dim Dimension, value Value, existing []LineTag) (tag LineTag, existed bool, err error) {
	if dim.CompanyID != line.CompanyID {
		return LineTag{}, false, shared.Validationf("dimension %s belongs to another company", dim.ID)
	}
	if value.DimensionID != dim.ID {
		return LineTag{}, false, shared.Validationf("value %s is not a member of dimension %s", value.ID, dim.ID)
	}
	for _, t := range existing {
		if t.DimensionID != dim.ID {
			continue
		}
		if t.DimensionValueID == value.ID {
			return t, true, nil
		}
		return LineTag{}, false, &ledgererrs.DuplicateDimensionError{
			LineID:          line.ID,
			DimensionID:     dim.ID,
			ExistingValueID: t.DimensionValueID,
		}
	}
	if !value.Active {
		return LineTag{}, false, shared.Validationf("dimension value %s is inactive", value.ID)
	}
	return LineTag{
		CompanyID:        line.CompanyID,
		LineID:           line.ID,
		DimensionID:      dim.ID,
		DimensionValueID: value.ID,
		DimensionName:    dim.Name,
		Value:            value.Value,
	}, false, nil
}

// ResolveTagConflict decides the outcome when stored already holds the line's
// tag for want's dimension: the same value is the stored tag, anything else is
// a DuplicateDimensionError.
func ResolveTagConflict(want, stored LineTag) (LineTag, error) {
	if stored.DimensionValueID == want.DimensionValueID {
		return stored, nil
	}
	return LineTag{}, &ledgererrs.DuplicateDimensionError{
		LineID:          want.LineID,
		DimensionID:     want.DimensionID,
		ExistingValueID: stored.DimensionValueID,
	}
}
