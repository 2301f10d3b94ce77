package schema

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionCreated   Action = "created"
	ActionUnchanged Action = "unchanged"
	ActionUpdated   Action = "updated"
	ActionMissing   Action = "missing"
	ActionDrifted   Action = "drifted"
)

// Entry records the outcome for one collection (Index == "") or one index.
type Entry struct {
	Collection string `json:"collection"`
	Index      string `json:"index,omitempty"`
	Action     Action `json:"action"`
	Detail     string `json:"detail,omitempty"`
}

func (e Entry) String() string {
	target := e.Collection
	if e.Index != "" {
		target += "." + e.Index
	}
	if e.Detail != "" {
		return fmt.Sprintf("%-9s %s (%s)", e.Action, target, e.Detail)
	}
	return fmt.Sprintf("%-9s %s", e.Action, target)
}

type Report struct {
	Database string  `json:"database"`
	Entries  []Entry `json:"entries"`
}

func (r *Report) add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// OK is false when anything declared is missing or differs from the server.
func (r *Report) OK() bool {
	for _, e := range r.Entries {
		if e.Action == ActionMissing || e.Action == ActionDrifted {
			return false
		}
	}
	return true
}

// Changed counts created and updated entries.
func (r *Report) Changed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == ActionCreated || e.Action == ActionUpdated {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database %s\n", r.Database)
	for _, e := range r.Entries {
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
