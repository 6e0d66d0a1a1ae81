package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *directory.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[user.ID]; exists {
		return directory.ErrUserAlreadyExists
	}
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return directory.ErrUserAlreadyExists
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*directory.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, directory.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, directory.ErrUserNotFound
}

func (r *userRepo) Update(ctx context.Context, user *directory.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return directory.ErrUserNotFound
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepo) ListByDealership(ctx context.Context, dealershipID string) ([]*directory.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*directory.User
	for _, user := range r.s.users {
		if user.DealershipID == dealershipID {
			cp := *user
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

type assignmentRepo struct {
	s *Store
}

func (r *assignmentRepo) ListForUser(ctx context.Context, userID string) ([]*directory.CorporateAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*directory.CorporateAssignment
	for _, a := range r.s.assignments {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *assignmentRepo) ListForDealership(ctx context.Context, dealershipID string) ([]*directory.CorporateAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*directory.CorporateAssignment
	for _, a := range r.s.assignments {
		if a.DealershipID == dealershipID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
