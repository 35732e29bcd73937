package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "Soft  cotton\ttee", want: "Soft cotton tee"},
		{name: "entities", in: "Salt &amp; pepper", want: "Salt & pepper"},
		{name: "paragraphs", in: "<p>Soft</p><p>cotton</p>", want: "Soft cotton"},
		{name: "inline markup keeps words", in: "<p><strong>Ultra</strong>soft</p>", want: "Ultrasoft"},
		{name: "list items", in: "<ul><li>red</li><li>blue</li></ul>", want: "red blue"},
		{name: "scripts and styles dropped", in: "<style>.a{}</style><p>Hi</p><script>alert(1)</script>", want: "Hi"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractText(tt.in))
		})
	}
}
