package testgen

import "testing"

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fences",
			in:   "def test(): ...\n",
			want: "def test(): ...\n",
		},
		{
			name: "plain fences",
			in:   "```\ndef test(): ...\n```",
			want: "def test(): ...\n",
		},
		{
			name: "language tag",
			in:   "```python\ndef test(): ...\n```",
			want: "def test(): ...\n",
		},
		{
			name: "surrounding whitespace",
			in:   "\n\n```python\ndef test(): ...\n```\n\n",
			want: "def test(): ...\n",
		},
		{
			name: "missing closing fence",
			in:   "```python\ndef test(): ...",
			want: "def test(): ...\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkdownFences(tt.in); got != tt.want {
				t.Errorf("StripMarkdownFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
