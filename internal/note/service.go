package note

import (
	"context"
	"fmt"
	"time"

	"team-workspace-server/internal/errors"
	"team-workspace-server/redis"
)

// initial lines allocated to a fresh note
const defaultInitialLines = 30

type Service interface {
	CreateNote(ctx context.Context, companyCode string, title string, creatorID uint64) (*Note, error)
	GetCompanyNotes(ctx context.Context, companyCode string, page, pageSize int) (*PaginatedNotes, error)
	GetNoteLines(ctx context.Context, noteID uint64) (*NotePageResponse, error)
}

type DefaultService struct {
	repository NoteRepository
	cache      *redis.Cache
	audit      Auditor
}

func NewService(repository NoteRepository, cache *redis.Cache, audit Auditor) Service {
	return &DefaultService{
		repository: repository,
		cache:      cache,
		audit:      audit,
	}
}

func (s *DefaultService) CreateNote(ctx context.Context, companyCode string, title string, creatorID uint64) (*Note, error) {
	if title == "" {
		return nil, errors.BadRequest("Title cannot be empty", nil)
	}

	note := &Note{
		Title:       title,
		CompanyCode: companyCode,
		CreatedByID: &creatorID,
	}
	if err := s.repository.CreateWithLines(ctx, note, defaultInitialLines); err != nil {
		return nil, err
	}

	// increase cache key, so any new fetch will get new version
	versionKey := fmt.Sprintf("company:%s:notes:version", companyCode)
	s.cache.IncrementVersion(ctx, versionKey)

	if s.audit != nil {
		s.audit.Record("CREATE", "NOTE", note.ID, creatorID, companyCode, note)
	}

	return note, nil
}

type PaginatedNotes struct {
	Data []Note    `json:"data"`
	Meta NotesMeta `json:"meta"`
}

func (s *DefaultService) GetCompanyNotes(ctx context.Context, companyCode string, page, pageSize int) (*PaginatedNotes, error) {
	// Get the current data version for this company's notes
	versionKey := fmt.Sprintf("company:%s:notes:version", companyCode)
	v := s.cache.GetVersion(ctx, versionKey)

	cacheKey := fmt.Sprintf("notes:c:%s:v:%d:p:%d:ps:%d", companyCode, v, page, pageSize)

	var result PaginatedNotes
	// get data from cache
	found, _ := s.cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	notes, meta, err := s.repository.ListByCompany(ctx, companyCode, page, pageSize)
	if err != nil {
		return nil, err
	}
	result = PaginatedNotes{Data: notes, Meta: meta}
	// set value to cache
	go s.cache.Set(context.Background(), cacheKey, result, 24*time.Hour)

	return &result, nil
}

type NotePageResponse struct {
	Note  Note       `json:"note"`
	Lines []NoteLine `json:"lines"`
}

// GetNoteLines returns a note and its full ordered line set for the initial
// page render; live edits afterwards arrive over the socket.
func (s *DefaultService) GetNoteLines(ctx context.Context, noteID uint64) (*NotePageResponse, error) {
	note, err := s.repository.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repository.Lines(ctx, noteID)
	if err != nil {
		return nil, err
	}

	return &NotePageResponse{Note: *note, Lines: lines}, nil
}
