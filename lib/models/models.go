package models

import (
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Model Groups
// --------------------------------------------------------------------------

// Group is a quota bucket that upstream model names are classified into.
type Group string

const (
	GroupPro     Group = "pro"
	GroupFlash   Group = "flash"
	GroupClaude  Group = "claude"
	GroupDefault Group = "default"
)

// Groups returns all known groups in classification order.
func Groups() []Group {
	return []Group{GroupPro, GroupFlash, GroupClaude, GroupDefault}
}

// --------------------------------------------------------------------------
// Classification
// --------------------------------------------------------------------------

// rule maps a model name predicate to a group. Rules are evaluated in order;
// the first match wins.
type rule struct {
	matches func(name string) bool
	group   Group
}

var rules = []rule{
	{func(n string) bool { return strings.HasPrefix(n, "claude") }, GroupClaude},
	// flash-lite and flash share a bucket
	{func(n string) bool { return strings.Contains(n, "-flash") }, GroupFlash},
	{func(n string) bool { return strings.Contains(n, "-pro") }, GroupPro},
}

// memo caches classifications; the model name space is tiny and stable, so
// entries are never evicted.
var memo = xsync.NewMapOf[string, Group]()

// Classify maps an upstream model name to its quota group. Matching is
// case-insensitive; unknown names fall into GroupDefault.
func Classify(model string) Group {
	group, _ := memo.LoadOrCompute(model, func() Group {
		name := strings.ToLower(strings.TrimSpace(model))
		for _, r := range rules {
			if r.matches(name) {
				return r.group
			}
		}
		return GroupDefault
	})
	return group
}
