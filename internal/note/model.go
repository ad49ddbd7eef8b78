package note

import (
	"time"
)

// Note is a collaboratively edited page of ordered lines, scoped to one company.
// LineCount caches the number of allocated lines so lock handling does not hit
// the lines table on every request.
type Note struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	CompanyCode string    `json:"company_code" gorm:"index"`
	LineCount   int       `json:"line_count"`
	CreatedByID *uint64   `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoteLine is the smallest lockable and editable unit of a note.
// (NoteID, LineNumber) is unique; line numbers are 1-based and lines are
// appended in batches, never deleted.
type NoteLine struct {
	ID           uint64    `json:"id"`
	NoteID       uint64    `json:"documentId" gorm:"uniqueIndex:idx_note_line"`
	LineNumber   int       `json:"lineNumber" gorm:"uniqueIndex:idx_note_line"`
	Content      *string   `json:"content"`
	Color        *string   `json:"color"`
	FontSize     *int      `json:"fontSize"`
	Highlighted  bool      `json:"highlighted"`
	LastEditorID *uint64   `json:"lastEditedById"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LinePatch carries the fields of a line a client may alter. Nil fields are
// left untouched by WriteLine.
type LinePatch struct {
	Content     *string
	Color       *string
	FontSize    *int
	Highlighted *bool
}

// apply merges the patch into the line and stamps the editor and
// modification time.
func (l *NoteLine) apply(patch LinePatch, editorID uint64, now time.Time) {
	if patch.Content != nil {
		l.Content = patch.Content
	}
	if patch.Color != nil {
		l.Color = patch.Color
	}
	if patch.FontSize != nil {
		l.FontSize = patch.FontSize
	}
	if patch.Highlighted != nil {
		l.Highlighted = *patch.Highlighted
	}
	l.LastEditorID = &editorID
	l.UpdatedAt = now
}
