package receipts

import "fmt"

// Break describes one detected chain violation.
type Break struct {
	// Index is the position in append order.
	Index   int
	TraceID string
	Reason  string
}

// Report summarizes a chain verification walk.
type Report struct {
	// Records is the number of receipts checked.
	Records int
	// Skipped counts unparsable log lines the walk could not check.
	Skipped int
	Breaks  []Break
}

// OK reports whether the chain verified cleanly.
func (r Report) OK() bool { return len(r.Breaks) == 0 }

// VerifyChain walks receipts in append order, recomputing each receipt's
// content hash and checking that prev_receipt_hash matches the hash of the
// receipt appended immediately before it (null for the first). After a
// break, the walk re-anchors on the record's stored hash so one violation
// does not cascade into many.
func VerifyChain(records []Receipt) Report {
	rep := Report{Records: len(records)}
	var wantPrev any
	for i, rec := range records {
		if !sameLink(rec[FieldPrevHash], wantPrev) {
			rep.Breaks = append(rep.Breaks, Break{
				Index:   i,
				TraceID: rec.TraceID(),
				Reason: fmt.Sprintf("prev hash %s, expected %s",
					describeLink(rec[FieldPrevHash]), describeLink(wantPrev)),
			})
		}
		recomputed, err := computeHash(rec)
		switch {
		case err != nil:
			rep.Breaks = append(rep.Breaks, Break{
				Index:   i,
				TraceID: rec.TraceID(),
				Reason:  fmt.Sprintf("receipt not hashable: %v", err),
			})
		case recomputed != rec.Hash():
			rep.Breaks = append(rep.Breaks, Break{
				Index:   i,
				TraceID: rec.TraceID(),
				Reason:  fmt.Sprintf("receipt hash %s, recomputed %s", rec.Hash(), recomputed),
			})
		}
		wantPrev = nil
		if h := rec.Hash(); h != "" {
			wantPrev = h
		}
	}
	return rep
}

func sameLink(got, want any) bool {
	gs, gok := got.(string)
	ws, wok := want.(string)
	if gok != wok {
		return false
	}
	if !gok {
		return got == nil && want == nil
	}
	return gs == ws
}

func describeLink(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
