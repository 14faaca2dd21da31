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
	"testing"

	"github.com/stretchr/testify/assert"
)

func templateSnapshot() Snapshot {
	return NewContext().
		WithOutput("fetch", map[string]any{
			"status": float64(200),
			"body": map[string]any{
				"items": []any{"first", "second"},
			},
		}).
		WithOutput("name", "Ada").
		Snapshot()
}

func TestResolveTemplate(t *testing.T) {
	snap := templateSnapshot()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain string untouched", "no placeholders here", "no placeholders here"},
		{"string value", "hello {{name}}", "hello Ada"},
		{"nested path", "status={{fetch.status}}", "status=200"},
		{"array index", "{{fetch.body.items.1}}", "second"},
		{"object renders as json", "{{fetch.body}}", `{"items":["first","second"]}`},
		{"unknown node", "{{missing.value}}", "{{unresolved:missing.value}}"},
		{"unknown path", "{{fetch.nope}}", "{{unresolved:fetch.nope}}"},
		{"index out of range", "{{fetch.body.items.5}}", "{{unresolved:fetch.body.items.5}}"},
		{"whitespace inside braces", "{{ name }}", "Ada"},
		{"multiple refs", "{{name}}:{{fetch.status}}", "Ada:200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTemplate(snap, tt.in))
		})
	}
}

func TestResolveValuePreservesStructure(t *testing.T) {
	snap := templateSnapshot()

	v := ResolveValue(snap, "{{fetch.body}}")
	assert.Equal(t, map[string]any{"items": []any{"first", "second"}}, v)

	v = ResolveValue(snap, " {{fetch.status}} ")
	assert.Equal(t, float64(200), v)
}

func TestResolveValueInterpolatesMixedStrings(t *testing.T) {
	snap := templateSnapshot()

	v := ResolveValue(snap, "status is {{fetch.status}}")
	assert.Equal(t, "status is 200", v)

	v = ResolveValue(snap, "{{missing}}")
	assert.Equal(t, "{{unresolved:missing}}", v)
}
