package memory

import (
	"context"
	"sort"

	"github.com/star4ce-apps/star4ce-backend/internal/audit"
)

type auditStore struct {
	s *Store
}

func (r *auditStore) List(ctx context.Context, f audit.Filter) ([]*audit.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*audit.Entry
	for _, e := range r.s.auditLog {
		if f.Matches(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *auditStore) Count(ctx context.Context, f audit.Filter) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, e := range r.s.auditLog {
		if f.Matches(e) {
			n++
		}
	}
	return n, nil
}
