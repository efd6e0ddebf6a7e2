package customer

import (
	"context"
	"fmt"
	"time"
)

// Store is the persistence interface the service depends on. Implemented by
// Repository.
type Store interface {
	Create(ctx context.Context, name, surname, actor string) (*Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
	Update(ctx context.Context, c *Customer, actor string) (*Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Photos manages the photo blobs attached to customer records. Implemented
// by the photo package's Service.
type Photos interface {
	Upload(ctx context.Context, existingKey *string, data []byte, originalName string) (string, error)
	Delete(ctx context.Context, key *string) error
	ResolveURL(ctx context.Context, key *string) (*string, error)
}

// Response is the outward-facing representation of a Customer. PhotoURL is
// a freshly signed, time-limited URL resolved at read time, never persisted.
type Response struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Surname    string    `json:"surname"`
	PhotoURL   *string   `json:"photoUrl"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	ModifiedBy string    `json:"modifiedBy"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// UpdateRequest carries the optional fields of a customer patch. A nil field
// means "leave unchanged".
type UpdateRequest struct {
	Name    *string
	Surname *string
}

// Service contains business logic for customer management.
type Service struct {
	repo   Store
	photos Photos
}

// NewService creates a new customer Service.
func NewService(repo Store, photos Photos) *Service {
	return &Service{repo: repo, photos: photos}
}

// Create persists a new customer with no photo attached.
func (s *Service) Create(ctx context.Context, actor, name, surname string) (*Response, error) {
	c, err := s.repo.Create(ctx, name, surname, actor)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, c)
}

// List returns all customers in store order.
func (s *Service) List(ctx context.Context) ([]*Response, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Response, 0, len(customers))
	for _, c := range customers {
		resp, err := s.toResponse(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

// GetByID returns a customer by ID.
func (s *Service) GetByID(ctx context.Context, id int64) (*Response, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, c)
}

// Patch applies the supplied fields to an existing customer and re-saves it.
func (s *Service) Patch(ctx context.Context, actor string, id int64, upd UpdateRequest) (*Response, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Surname != nil {
		c.Surname = *upd.Surname
	}

	updated, err := s.repo.Update(ctx, c, actor)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, updated)
}

// Delete removes a customer, deleting any attached photo blob first. The
// blob delete is attempted even though the row delete that follows could
// still fail; there is no compensating re-upload.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.photos.Delete(ctx, c.PhotoKey); err != nil {
		return fmt.Errorf("delete customer photo: %w", err)
	}

	return s.repo.Delete(ctx, id)
}

// AttachPhoto replaces the customer's photo and stores the new blob key on
// the record.
func (s *Service) AttachPhoto(ctx context.Context, actor string, id int64, data []byte, originalName string) (*Response, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := s.photos.Upload(ctx, c.PhotoKey, data, originalName)
	if err != nil {
		return nil, err
	}

	c.PhotoKey = &key
	updated, err := s.repo.Update(ctx, c, actor)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, updated)
}

// toResponse composes the outward view, resolving the photo key into a
// freshly signed URL.
func (s *Service) toResponse(ctx context.Context, c *Customer) (*Response, error) {
	url, err := s.photos.ResolveURL(ctx, c.PhotoKey)
	if err != nil {
		return nil, fmt.Errorf("resolve photo url: %w", err)
	}

	return &Response{
		ID:         c.ID,
		Name:       c.Name,
		Surname:    c.Surname,
		PhotoURL:   url,
		CreatedBy:  c.CreatedBy,
		CreatedAt:  c.CreatedAt,
		ModifiedBy: c.ModifiedBy,
		ModifiedAt: c.ModifiedAt,
	}, nil
}
