package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestApply(t *testing.T) {
	original := NoteLine{
		ID:          42,
		NoteID:      7,
		LineNumber:  3,
		Content:     strPtr("before"),
		Color:       strPtr("#000000"),
		FontSize:    intPtr(12),
		Highlighted: false,
	}

	tests := []struct {
		name  string
		patch LinePatch
		want  func(l *NoteLine)
	}{
		{
			name: "full patch replaces every field",
			patch: LinePatch{
				Content:     strPtr("after"),
				Color:       strPtr("#ff0000"),
				FontSize:    intPtr(16),
				Highlighted: boolPtr(true),
			},
			want: func(l *NoteLine) {
				assert.Equal(t, "after", *l.Content)
				assert.Equal(t, "#ff0000", *l.Color)
				assert.Equal(t, 16, *l.FontSize)
				assert.True(t, l.Highlighted)
			},
		},
		{
			name:  "content only leaves styling untouched",
			patch: LinePatch{Content: strPtr("after")},
			want: func(l *NoteLine) {
				assert.Equal(t, "after", *l.Content)
				assert.Equal(t, "#000000", *l.Color)
				assert.Equal(t, 12, *l.FontSize)
				assert.False(t, l.Highlighted)
			},
		},
		{
			name:  "highlight toggle leaves content untouched",
			patch: LinePatch{Highlighted: boolPtr(true)},
			want: func(l *NoteLine) {
				assert.Equal(t, "before", *l.Content)
				assert.True(t, l.Highlighted)
			},
		},
		{
			name:  "empty patch changes nothing but the stamps",
			patch: LinePatch{},
			want: func(l *NoteLine) {
				assert.Equal(t, "before", *l.Content)
				assert.Equal(t, "#000000", *l.Color)
				assert.Equal(t, 12, *l.FontSize)
				assert.False(t, l.Highlighted)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := original
			now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

			line.apply(tt.patch, 5, now)

			tt.want(&line)
			// editor and modification time are stamped on every write
			if assert.NotNil(t, line.LastEditorID) {
				assert.Equal(t, uint64(5), *line.LastEditorID)
			}
			assert.Equal(t, now, line.UpdatedAt)
		})
	}
}
