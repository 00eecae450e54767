package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain markdown untouched", "**BGC** was founded in 2013.\n\n- gas", "**BGC** was founded in 2013.\n\n- gas"},
		{"line break", "Hello<br>world", "Hello\nworld"},
		{"inline tags", "Capacity is <b>1,000</b> MMscfd", "Capacity is 1,000 MMscfd"},
		{"paragraphs", "<p>first</p><p>second</p>", "first\n\nsecond"},
		{"list", "<ul><li>one</li><li>two</li></ul>", "- one\n- two"},
		{"script dropped", "<script>alert(1)</script>ok", "ok"},
		{"entities", "Tom &amp; Jerry<br/>", "Tom & Jerry"},
		{"arabic", "<p>شركة غاز البصرة</p>", "شركة غاز البصرة"},
		{"comparison kept", "If a<b then the valve opens.", "If a<b then the valve opens."},
		{"comparison with closing bracket", "When a<b and c>d the trip fires.", "When a<b and c>d the trip fires."},
		{"unknown tag kept", "Edit the <config> file.", "Edit the <config> file."},
		{"inline code kept", "Run `<config>` then restart.", "Run `<config>` then restart."},
		{"inline code beside markup", "Run `<br>` first<br>then restart.", "Run `<br>` first\nthen restart."},
		{"fenced code kept", "Example:<br>```\n<div>x</div>\n```", "Example:\n```\n<div>x</div>\n```"},
		{"unclosed code span", "Run `<config> now", "Run `<config> now"},
		{"uppercase script", "<SCRIPT>x()</SCRIPT>done", "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripHTML(tt.in))
		})
	}
}
