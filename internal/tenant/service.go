package tenant

import (
	"context"

	"team-workspace-server/internal/domain"
	"team-workspace-server/internal/errors"
	"team-workspace-server/internal/note"
)

// lines allocated to the note a new company starts with
const provisionedNoteLines = 30

type Service interface {
	Provision(ctx context.Context, name, code string) (*domain.Company, error)
	GetByCode(ctx context.Context, code string) (*domain.Company, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type DefaultService struct {
	repository CompanyRepository
	notes      note.NoteRepository
}

func NewService(repository CompanyRepository, notes note.NoteRepository) Service {
	return &DefaultService{repository: repository, notes: notes}
}

// Provision registers a company and creates its first shared note so the
// whiteboard is usable the moment the first user connects.
func (s *DefaultService) Provision(ctx context.Context, name, code string) (*domain.Company, error) {
	exists, err := s.repository.CodeExists(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("Company code already taken", nil)
	}

	company := &domain.Company{Code: code, Name: name}
	if err := s.repository.Create(ctx, company); err != nil {
		return nil, err
	}

	starter := &note.Note{
		Title:       "General notes",
		CompanyCode: code,
	}
	if err := s.notes.CreateWithLines(ctx, starter, provisionedNoteLines); err != nil {
		return nil, err
	}

	return company, nil
}

func (s *DefaultService) GetByCode(ctx context.Context, code string) (*domain.Company, error) {
	return s.repository.FindByCode(ctx, code)
}

func (s *DefaultService) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.repository.CodeExists(ctx, code)
}
