package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sahanj/shopledger/internal/docstore"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*User, error) {
	if params.Level != LevelOne && params.Level != LevelTwo {
		return nil, ErrInvalidLevel
	}

	existing, err := s.ByUsername(ctx, params.Username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		Username:       params.Username,
		FullName:       params.FullName,
		Level:          params.Level,
		HashedPassword: string(hashed),
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}

	id, err := s.store.Create(ctx, Collection, u)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	u.ID = id

	return u, nil
}

// Authenticate verifies a username/password pair. Unknown, deactivated and
// wrong-password cases are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !u.Active {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) ByUsername(ctx context.Context, username string) (*User, error) {
	docs, err := s.store.Query(ctx, Collection, docstore.Query{
		Filters: []docstore.Filter{{Field: "username", Op: docstore.OpEqual, Value: username}},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}

	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	var u User
	if err := docs[0].Decode(&u); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}

	u.ID = docs[0].ID

	return &u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	var u User

	if err := s.store.Get(ctx, Collection, id, &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	u.ID = id

	return &u, nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]*User, len(docs))

	for i, d := range docs {
		var u User
		if err := d.Decode(&u); err != nil {
			return nil, fmt.Errorf("decoding user %s: %w", d.ID, err)
		}

		u.ID = d.ID
		users[i] = &u
	}

	return users, nil
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*User, error) {
	fields := make(map[string]any)

	if params.FullName != nil {
		fields["full_name"] = *params.FullName
	}

	if params.Level != nil {
		if *params.Level != LevelOne && *params.Level != LevelTwo {
			return nil, ErrInvalidLevel
		}

		fields["level"] = *params.Level
	}

	if params.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}

		fields["hashed_password"] = string(hashed)
	}

	if len(fields) > 0 {
		if err := s.store.Update(ctx, Collection, id, fields); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, ErrNotFound
			}

			return nil, fmt.Errorf("updating user: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Deactivate soft-deletes a user by marking it inactive.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if err := s.store.Update(ctx, Collection, id, map[string]any{"is_active": false}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("deactivating user: %w", err)
	}

	return nil
}
