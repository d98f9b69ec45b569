package x12

import (
	"fmt"
)

// ValidateStructure checks envelope integrity and returns the first
// violation as a *StructureError. The checks run in order:
//
//  1. The interchange header is an ISA with at least 16 elements.
//  2. IEA02 matches ISA13 when an IEA is present.
//  3. Each group has a GS header, and GE02 matches GS06 when a GE is present.
//  4. Each transaction starts with ST, ends with SE, and SE02 matches ST02.
func ValidateStructure(ic *InterchangeControl) error {
	if ic == nil {
		return &StructureError{Level: "interchange", Detail: "no interchange", Err: ErrMissingEnvelope}
	}

	// ISA
	if ic.Header.ID != "ISA" {
		return &StructureError{
			Level:  "interchange",
			Detail: fmt.Sprintf("expected ISA header, found %q", ic.Header.ID),
			Err:    ErrMissingEnvelope,
		}
	}
	if n := len(ic.Header.Elements); n < isaElementCount {
		return &StructureError{
			Level:  "interchange",
			Detail: fmt.Sprintf("ISA has %d elements, need %d", n, isaElementCount),
			Err:    ErrInvalidHeader,
		}
	}

	// IEA
	if ic.Trailer != nil {
		if got, want := ic.Trailer.Element(2), ic.Header.Element(13); got != want {
			return &StructureError{
				Level:  "interchange",
				Detail: fmt.Sprintf("IEA02 %q does not match ISA13 %q", got, want),
				Err:    ErrControlMismatch,
			}
		}
	}

	for gi, group := range ic.FunctionalGroups {
		if err := validateGroup(gi+1, group); err != nil {
			return err
		}
	}
	return nil
}

func validateGroup(index int, group *FunctionalGroup) error {
	if group.Header.ID != "GS" {
		return &StructureError{
			Level:  "group",
			Group:  index,
			Detail: "transactions appear without a GS header",
			Err:    ErrMissingEnvelope,
		}
	}
	if group.Trailer != nil {
		if got, want := group.Trailer.Element(2), group.Header.Element(6); got != want {
			return &StructureError{
				Level:  "group",
				Group:  index,
				Detail: fmt.Sprintf("GE02 %q does not match GS06 %q", got, want),
				Err:    ErrControlMismatch,
			}
		}
	}

	for ti, txn := range group.Transactions {
		if err := validateTransaction(index, ti+1, txn); err != nil {
			return err
		}
	}
	return nil
}

func validateTransaction(group, index int, txn *Transaction) error {
	fail := func(err error, format string, args ...interface{}) error {
		return &StructureError{
			Level:       "transaction",
			Group:       group,
			Transaction: index,
			Detail:      fmt.Sprintf(format, args...),
			Err:         err,
		}
	}

	if txn.Header().ID != "ST" {
		return fail(ErrMissingEnvelope, "transaction does not start with ST")
	}
	trailer, ok := txn.Trailer()
	if !ok {
		return fail(ErrMissingEnvelope, "transaction %s does not end with SE", txn.ControlNumber)
	}
	if got, want := trailer.Element(2), txn.Header().Element(2); got != want {
		return fail(ErrControlMismatch, "SE02 %q does not match ST02 %q", got, want)
	}
	return nil
}
