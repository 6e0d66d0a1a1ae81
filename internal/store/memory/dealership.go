package memory

import (
	"context"
	"sort"

	"github.com/star4ce-apps/star4ce-backend/internal/dealership"
)

type dealershipRepo struct {
	s *Store
}

func (r *dealershipRepo) Create(ctx context.Context, d *dealership.Dealership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.dealerships[d.ID]; exists {
		return dealership.ErrDealershipExists
	}
	cp := *d
	r.s.dealerships[d.ID] = &cp
	return nil
}

func (r *dealershipRepo) GetByID(ctx context.Context, id string) (*dealership.Dealership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.dealerships[id]
	if !ok {
		return nil, dealership.ErrDealershipNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *dealershipRepo) GetByName(ctx context.Context, name string) (*dealership.Dealership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.dealerships {
		if d.Name == name {
			cp := *d
			return &cp, nil
		}
	}
	return nil, dealership.ErrDealershipNotFound
}

func (r *dealershipRepo) Update(ctx context.Context, d *dealership.Dealership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.dealerships[d.ID]; !ok {
		return dealership.ErrDealershipNotFound
	}
	cp := *d
	r.s.dealerships[d.ID] = &cp
	return nil
}

func (r *dealershipRepo) List(ctx context.Context, limit, offset int) ([]*dealership.Dealership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*dealership.Dealership
	for _, d := range r.s.dealerships {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}
