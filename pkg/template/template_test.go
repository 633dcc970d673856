package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	vars := map[string]string{
		"supplier": "Aceros del Norte",
		"project":  "PRY-2026-0004",
		"stage":    "Implementation",
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced", "Supplier ${supplier} moved to ${stage}", "Supplier Aceros del Norte moved to Implementation"},
		{"bare", "Project $project updated", "Project PRY-2026-0004 updated"},
		{"unknown left literal", "Hello ${nobody}", "Hello ${nobody}"},
		{"unknown bare left literal", "Hello $nobody", "Hello $nobody"},
		{"escaped dollar", "Cost: $$120", "Cost: $120"},
		{"trailing dollar", "end$", "end$"},
		{"unclosed brace", "x ${supplier", "x ${supplier"},
		{"dollar before punctuation", "a $ b", "a $ b"},
		{"adjacent", "${supplier}/${project}", "Aceros del Norte/PRY-2026-0004"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in, vars))
		})
	}
}

func TestRenderNilVars(t *testing.T) {
	assert.Equal(t, "Hello ${name}", Render("Hello ${name}", nil))
}
