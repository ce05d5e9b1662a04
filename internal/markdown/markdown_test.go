package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "plain text becomes a paragraph",
			source:   "Designer & Developer",
			contains: []string{"<p>Designer &amp; Developer</p>"},
		},
		{
			name:     "emphasis and links",
			source:   "Building *things* at [Example](https://example.com)",
			contains: []string{"<em>things</em>", `<a href="https://example.com">Example</a>`},
		},
		{
			name:     "bare urls are linked",
			source:   "see https://example.org",
			contains: []string{`<a href="https://example.org">https://example.org</a>`},
		},
		{
			name:     "line breaks are kept",
			source:   "first\nsecond",
			contains: []string{"first<br>"},
		},
		{
			name:     "raw html is not passed through",
			source:   `hi <script>alert(1)</script>`,
			excludes: []string{"<script>"},
		},
		{
			name:     "javascript links are neutralised",
			source:   "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := string(Render(tt.source))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.False(t, strings.Contains(out, s), "output %q should not contain %q", out, s)
			}
		})
	}
}
