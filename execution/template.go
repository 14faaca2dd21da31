//
// FlowMaestro is pleased to support the open source community by making flowmaestro-go available.
//
// Copyright (C) 2025 FlowMaestro.  All rights reserved.
//
// flowmaestro-go is licensed under the Apache License Version 2.0.
//
//

package execution

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {{nodeId}} and {{nodeId.path.to.field}}
// references inside step config strings.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// ResolveTemplate substitutes {{nodeId.path}} placeholders in s with values
// from the snapshot. A reference that cannot be resolved renders as an
// explicit {{unresolved:ref}} marker instead of failing, so partially-run
// graphs still produce diagnosable output.
func ResolveTemplate(snap Snapshot, s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		ref := strings.TrimSpace(match[2 : len(match)-2])
		v, ok := resolveRef(snap, ref)
		if !ok {
			return fmt.Sprintf("{{unresolved:%s}}", ref)
		}
		return renderValue(v)
	})
}

// ResolveValue resolves s against the snapshot, preserving structure: when
// the whole string is a single placeholder the underlying value is returned
// as-is, otherwise the string is interpolated. This lets configs pass whole
// objects between nodes, not just stringified fragments.
func ResolveValue(snap Snapshot, s string) any {
	trimmed := strings.TrimSpace(s)
	if m := placeholderPattern.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
		if v, ok := resolveRef(snap, m[1]); ok {
			return v
		}
		return fmt.Sprintf("{{unresolved:%s}}", m[1])
	}
	return ResolveTemplate(snap, s)
}

// resolveRef looks up "nodeId" or "nodeId.path.to.field" in the snapshot.
// Path segments traverse JSON-style maps and arrays (numeric segments index
// into slices).
func resolveRef(snap Snapshot, ref string) (any, bool) {
	parts := strings.Split(ref, ".")
	root, ok := snap.Output(parts[0])
	if !ok {
		return nil, false
	}
	return walkPath(root, parts[1:])
}

func walkPath(v any, path []string) (any, bool) {
	for _, seg := range path {
		switch cur := v.(type) {
		case map[string]any:
			next, ok := cur[seg]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(cur) {
				return nil, false
			}
			v = cur[idx]
		default:
			return nil, false
		}
	}
	return v, true
}

// renderValue turns a resolved value into its string form: strings pass
// through untouched, everything else serializes as JSON.
func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	}
}
