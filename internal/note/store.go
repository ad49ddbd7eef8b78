package note

import (
	"context"
	defError "errors"
	"time"

	"team-workspace-server/internal/errors"

	"gorm.io/gorm"
)

// LineStore is the persistence contract the coordinator depends on.
type LineStore interface {
	GetLineCount(ctx context.Context, noteID uint64) (int, error)
	AppendLines(ctx context.Context, noteID uint64, count int) ([]NoteLine, error)
	WriteLine(ctx context.Context, noteID uint64, lineNumber int, patch LinePatch, editorID uint64) (*NoteLine, error)
	GetLine(ctx context.Context, noteID uint64, lineNumber int) (*NoteLine, error)
}

// NoteRepository is the wider repository used by the HTTP service layer,
// it includes the LineStore contract plus note-level reads and creation.
type NoteRepository interface {
	LineStore
	CreateWithLines(ctx context.Context, note *Note, lineCount int) error
	FindByID(ctx context.Context, id uint64) (*Note, error)
	ListByCompany(ctx context.Context, companyCode string, page, pageSize int) ([]Note, NotesMeta, error)
	Lines(ctx context.Context, noteID uint64) ([]NoteLine, error)
}

type NotesMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type NoteRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new note repository
func NewRepository(db *gorm.DB) NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

// CreateWithLines creates a note together with its initial batch of blank lines.
func (r *NoteRepositoryImpl) CreateWithLines(ctx context.Context, note *Note, lineCount int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		note.LineCount = lineCount
		note.CreatedAt = now
		note.UpdatedAt = now

		if err := tx.Create(note).Error; err != nil {
			return err
		}

		lines := blankLines(note.ID, 1, lineCount, now)
		return tx.Create(&lines).Error
	})
}

func (r *NoteRepositoryImpl) FindByID(ctx context.Context, id uint64) (*Note, error) {
	var note Note
	err := r.db.WithContext(ctx).First(&note, id).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Note not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *NoteRepositoryImpl) ListByCompany(ctx context.Context, companyCode string, page, pageSize int) ([]Note, NotesMeta, error) {
	var notes []Note
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Note{}).Where("company_code = ?", companyCode).Count(&totalRecords).Error; err != nil {
		return notes, NotesMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).Where("company_code = ?", companyCode).
		Order("id ASC").
		Offset(offset).
		Limit(pageSize).
		Find(&notes).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return notes, NotesMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *NoteRepositoryImpl) Lines(ctx context.Context, noteID uint64) ([]NoteLine, error) {
	var lines []NoteLine
	err := r.db.WithContext(ctx).Where("note_id = ?", noteID).
		Order("line_number ASC").
		Find(&lines).Error
	return lines, err
}

// GetLineCount reads the cached line count from the note row.
func (r *NoteRepositoryImpl) GetLineCount(ctx context.Context, noteID uint64) (int, error) {
	var note Note
	err := r.db.WithContext(ctx).Select("line_count").First(&note, noteID).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return 0, errors.NotFound("Note not found", err)
	}
	if err != nil {
		return 0, err
	}
	return note.LineCount, nil
}

// AppendLines allocates count new blank lines continuing from the current max
// line number and persists the updated cached count, in one transaction.
func (r *NoteRepositoryImpl) AppendLines(ctx context.Context, noteID uint64, count int) ([]NoteLine, error) {
	var lines []NoteLine

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var current int
		// read and bump the cached count in one statement so two extensions
		// cannot allocate overlapping line numbers
		res := tx.Raw(`
			UPDATE notes
			SET line_count = line_count + ?,
			    updated_at = ?
			WHERE id = ?
			RETURNING line_count - ?
		`, count, now, noteID, count).Scan(&current)
		if res.Error != nil {
			return res.Error
		}
		// RETURNING yields one row per updated note; none means the note
		// does not exist, and lines must never be created without one
		if res.RowsAffected == 0 {
			return errors.NotFound("Note not found", nil)
		}

		lines = blankLines(noteID, current+1, count, now)
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// WriteLine merges the patch into an existing line, stamps the editor and
// modification time, and persists the result.
func (r *NoteRepositoryImpl) WriteLine(ctx context.Context, noteID uint64, lineNumber int, patch LinePatch, editorID uint64) (*NoteLine, error) {
	var line NoteLine
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND line_number = ?", noteID, lineNumber).
		First(&line).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Note line not found", err)
	}
	if err != nil {
		return nil, err
	}

	line.apply(patch, editorID, time.Now().UTC())

	if err := r.db.WithContext(ctx).Save(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *NoteRepositoryImpl) GetLine(ctx context.Context, noteID uint64, lineNumber int) (*NoteLine, error) {
	var line NoteLine
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND line_number = ?", noteID, lineNumber).
		First(&line).Error
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Note line not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func blankLines(noteID uint64, from, count int, now time.Time) []NoteLine {
	lines := make([]NoteLine, 0, count)
	for i := 0; i < count; i++ {
		lines = append(lines, NoteLine{
			NoteID:     noteID,
			LineNumber: from + i,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return lines
}
