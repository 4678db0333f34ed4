package mapping

import (
	"fmt"
	"strconv"

	"animelists/internal/filter"
)

// Resolution is the outcome of resolving candidates against one target.
// IDs are unique and in first-seen order. Found and Unknown hold audit lines
// in encounter order. Skipped counts candidates whose target id was already
// taken by an earlier candidate; they produce no audit line.
type Resolution struct {
	Target  Target   `json:"target"`
	IDs     []int64  `json:"ids"`
	Found   []string `json:"found"`
	Unknown []string `json:"unknown"`
	Skipped int      `json:"skipped"`
}

// Resolve classifies each candidate against table for target.
//
//	absent from the table      -> Unknown "id->?: title"
//	present, target id is null -> Unknown "id->null: title"
//	present, new target id     -> IDs and Found "id->target: title"
//	present, seen target id    -> Skipped
func Resolve(candidates []filter.Candidate, table *Table, target Target) Resolution {
	res := Resolution{
		Target:  target,
		IDs:     []int64{},
		Found:   []string{},
		Unknown: []string{},
	}
	seen := make(map[int64]struct{}, len(candidates))
	for _, c := range candidates {
		rec, ok := table.Lookup(c.SourceID)
		if !ok {
			res.Unknown = append(res.Unknown, auditLine(c, "?"))
			continue
		}
		id := rec.ID(target)
		if id == nil {
			res.Unknown = append(res.Unknown, auditLine(c, "null"))
			continue
		}
		if _, dup := seen[*id]; dup {
			res.Skipped++
			continue
		}
		seen[*id] = struct{}{}
		res.IDs = append(res.IDs, *id)
		res.Found = append(res.Found, auditLine(c, strconv.FormatInt(*id, 10)))
	}
	return res
}

func auditLine(c filter.Candidate, target string) string {
	return fmt.Sprintf("%d->%s: %s", c.SourceID, target, c.Title)
}
