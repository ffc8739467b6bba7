package todo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/redmonkez12/todos-api/internal/images"
	"github.com/redmonkez12/todos-api/internal/logging"
	"github.com/redmonkez12/todos-api/internal/pagination"
)

var ErrInvalidInput = errors.New("invalid todo")

const (
	minTitleLen = 4
	maxTitleLen = 140
	minTextLen  = 5
	maxTextLen  = 1000
)

// Store is the persistence the service needs
type Store interface {
	Count(ctx context.Context, ownerID int64) (int, error)
	List(ctx context.Context, ownerID int64, offset, limit int) ([]*Todo, error)
	Create(ctx context.Context, ownerID int64, title, text string, imageFilename *string) (*Todo, error)
	Get(ctx context.Context, ownerID, id int64) (*Todo, error)
	Update(ctx context.Context, ownerID, id int64, title, text string, imageFilename *string) (*Todo, error)
	Delete(ctx context.Context, ownerID, id int64) (*Todo, error)
	OwnerHasImage(ctx context.Context, ownerID int64, filename string) (bool, error)
}

// ImageStore saves and serves todo pictures
type ImageStore interface {
	Save(ctx context.Context, up images.Upload) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// Input is the client-supplied content of a todo. Image is optional.
type Input struct {
	Title string
	Text  string
	Image *images.Upload
}

type Service struct {
	todos   Store
	images  ImageStore
	perPage int
}

func NewService(todos Store, imageStore ImageStore, perPage int) *Service {
	return &Service{
		todos:   todos,
		images:  imageStore,
		perPage: perPage,
	}
}

// List returns page of the owner's todos with links built on baseURL
func (s *Service) List(ctx context.Context, ownerID int64, page int, baseURL string) (pagination.Result[*Todo], error) {
	total, err := s.todos.Count(ctx, ownerID)
	if err != nil {
		return pagination.Result[*Todo]{}, err
	}

	p, err := pagination.Paginate(total, page, s.perPage, baseURL)
	if err != nil {
		return pagination.Result[*Todo]{}, err
	}

	items, err := s.todos.List(ctx, ownerID, p.Offset, p.Limit)
	if err != nil {
		return pagination.Result[*Todo]{}, err
	}

	return pagination.NewResult(p, items), nil
}

// Create stores the image first and removes it again if the insert fails
func (s *Service) Create(ctx context.Context, ownerID int64, in Input) (*Todo, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	filename, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	created, err := s.todos.Create(ctx, ownerID, in.Title, in.Text, filename)
	if err != nil {
		s.discardImage(ctx, filename)
		return nil, err
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, ownerID, id int64) (*Todo, error) {
	return s.todos.Get(ctx, ownerID, id)
}

// Update replaces title and text. A new image replaces the old one, which is
// removed once the row points at the new file.
func (s *Service) Update(ctx context.Context, ownerID, id int64, in Input) (*Todo, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	current, err := s.todos.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	filename := current.ImageFilename
	if in.Image != nil {
		filename, err = s.saveImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
	}

	updated, err := s.todos.Update(ctx, ownerID, id, in.Title, in.Text, filename)
	if err != nil {
		if in.Image != nil {
			s.discardImage(ctx, filename)
		}
		return nil, err
	}

	if in.Image != nil {
		s.discardImage(ctx, current.ImageFilename)
	}

	return updated, nil
}

// Delete removes the todo, then its image. A failure to remove the image is
// only logged.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	deleted, err := s.todos.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	s.discardImage(ctx, deleted.ImageFilename)
	return nil
}

// OpenImage returns images.ErrNotFound unless one of the owner's todos
// references filename and the file exists
func (s *Service) OpenImage(ctx context.Context, ownerID int64, filename string) (io.ReadCloser, error) {
	if !images.ValidFilename(filename) {
		return nil, images.ErrNotFound
	}

	owned, err := s.todos.OwnerHasImage(ctx, ownerID, filename)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, images.ErrNotFound
	}

	return s.images.Open(ctx, filename)
}

func (s *Service) saveImage(ctx context.Context, up *images.Upload) (*string, error) {
	if up == nil {
		return nil, nil
	}

	name, err := s.images.Save(ctx, *up)
	if err != nil {
		return nil, err
	}

	return &name, nil
}

func (s *Service) discardImage(ctx context.Context, filename *string) {
	if filename == nil {
		return
	}

	if err := s.images.Delete(ctx, *filename); err != nil {
		logging.GetLoggerFromContext(ctx).Warn("failed to delete image",
			"filename", *filename, "error", err)
	}
}

func validateInput(in Input) error {
	if n := utf8.RuneCountInString(in.Title); n < minTitleLen || n > maxTitleLen {
		return fmt.Errorf("%w: title must be between %d and %d characters", ErrInvalidInput, minTitleLen, maxTitleLen)
	}
	if n := utf8.RuneCountInString(in.Text); n < minTextLen || n > maxTextLen {
		return fmt.Errorf("%w: text must be between %d and %d characters", ErrInvalidInput, minTextLen, maxTextLen)
	}
	return nil
}
