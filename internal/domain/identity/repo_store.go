package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ampara/clinic/internal/platform/apperr"
	"github.com/ampara/clinic/internal/platform/docstore"
)

const usersCollection = "users"

type userRepoStore struct {
	users *docstore.Collection[User]
}

func NewUserRepo(store docstore.Store) UserRepository {
	return &userRepoStore{users: docstore.NewCollection[User](store, usersCollection)}
}

func (r *userRepoStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if err := r.users.Insert(ctx, u.ID, u); err != nil {
		if errors.Is(err, docstore.ErrDuplicateID) {
			return apperr.Conflictf("user %s already exists", u.ID)
		}
		return apperr.Internal(err, "create user")
	}
	return nil
}

func (r *userRepoStore) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, apperr.Internal(err, "get user")
	}
	return u, nil
}

// GetByEmail expects an already normalized address.
func (r *userRepoStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := r.users.FindOne(ctx, docstore.Filter{"email": email})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperr.NotFoundf("user not found")
		}
		return nil, apperr.Internal(err, "get user by email")
	}
	return u, nil
}

func (r *userRepoStore) Update(ctx context.Context, u *User) error {
	if err := r.users.Replace(ctx, u.ID, u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return apperr.NotFoundf("user not found")
		}
		return apperr.Internal(err, "update user")
	}
	return nil
}

func (r *userRepoStore) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.users.Delete(ctx, id)
	if err != nil {
		return false, apperr.Internal(err, "delete user")
	}
	return ok, nil
}

func (r *userRepoStore) List(ctx context.Context) ([]*User, error) {
	items, err := r.users.FindAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list users")
	}
	out := make([]*User, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func (r *userRepoStore) Count(ctx context.Context) (int64, error) {
	n, err := r.users.Count(ctx, nil)
	if err != nil {
		return 0, apperr.Internal(err, "count users")
	}
	return n, nil
}
