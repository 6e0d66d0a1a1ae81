package memory

import (
	"context"
	"sort"
	"time"

	"github.com/star4ce-apps/star4ce-backend/internal/access"
	"github.com/star4ce-apps/star4ce-backend/internal/directory"
)

type accessRepo struct {
	s *Store
}

func (r *accessRepo) Create(ctx context.Context, req *access.Request) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.requests {
		if existing.Status == access.StatusPending &&
			existing.RequesterUserID == req.RequesterUserID &&
			existing.TargetDealership == req.TargetDealership &&
			existing.Kind == req.Kind {
			return access.ErrDuplicatePending
		}
	}

	cp := *req
	r.s.requests[req.ID] = &cp
	return nil
}

func (r *accessRepo) GetByID(ctx context.Context, id string) (*access.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, access.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *accessRepo) ListByStatus(ctx context.Context, status access.Status, limit, offset int) ([]*access.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*access.Request
	for _, req := range r.s.requests {
		if req.Status == status {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (r *accessRepo) ListByRequester(ctx context.Context, requesterID string) ([]*access.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*access.Request
	for _, req := range r.s.requests {
		if req.RequesterUserID == requesterID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *accessRepo) Resolve(ctx context.Context, id string, decision access.Status, resolvedBy string, resolvedAt time.Time, effects access.ResolutionEffects) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return access.ErrRequestNotFound
	}
	// Compare-and-swap: only a Pending row is mutable.
	if req.Status != access.StatusPending {
		return access.ErrAlreadyResolved
	}

	req.Status = decision
	req.ResolvedBy = resolvedBy
	at := resolvedAt
	req.ResolvedAt = &at

	if effects.Grant != nil {
		r.s.applyGrant(effects.Grant, resolvedBy, resolvedAt)
	}
	if effects.Audit != nil {
		entry := *effects.Audit
		r.s.auditLog = append(r.s.auditLog, &entry)
	}
	return nil
}

// applyGrant mutates directory state for an approved request. Caller holds
// the lock.
func (s *Store) applyGrant(grant *access.Grant, grantedBy string, at time.Time) {
	switch grant.Kind {
	case access.KindManagerJoin:
		if user, ok := s.users[grant.UserID]; ok {
			user.Role = directory.RoleManager
			user.DealershipID = grant.DealershipID
		}
	case access.KindCorporateAssign:
		for _, a := range s.assignments {
			if a.UserID == grant.UserID && a.DealershipID == grant.DealershipID {
				return
			}
		}
		s.assignments = append(s.assignments, &directory.CorporateAssignment{
			UserID:       grant.UserID,
			DealershipID: grant.DealershipID,
			GrantedAt:    at,
			GrantedBy:    grantedBy,
		})
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
