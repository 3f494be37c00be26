package leads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage.
//
// CreateOrGet stores lead unless a lead with the same (email, source) already
// exists, in which case the existing lead is returned and created is false.
// The check and the write happen as one atomic step.
type Repository interface {
	CreateOrGet(ctx context.Context, lead *Lead) (stored *Lead, created bool, err error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// InMemoryRepository keeps leads in process memory. Used in tests and when
// no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Lead
	byKey map[string]*Lead
	order []*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:  make(map[string]*Lead),
		byKey: make(map[string]*Lead),
	}
}

func dedupeKey(email, source string) string {
	return strings.ToLower(email) + "|" + source
}

// CreateOrGet stores the lead unless its (email, source) pair is taken.
func (r *InMemoryRepository) CreateOrGet(ctx context.Context, lead *Lead) (*Lead, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dedupeKey(lead.Email, lead.Source)
	if existing, ok := r.byKey[key]; ok {
		return cloneLead(existing), false, nil
	}

	stored := cloneLead(lead)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.byID[stored.ID] = stored
	r.byKey[key] = stored
	r.order = append(r.order, stored)

	return cloneLead(stored), true, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.byID[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// List returns leads newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	matched := make([]*Lead, 0, len(r.order))
	for _, lead := range r.order {
		if filter.Source != "" && lead.Source != filter.Source {
			continue
		}
		matched = append(matched, cloneLead(lead))
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter), nil
}

// Len reports how many leads are stored.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func paginate(leads []*Lead, filter ListFilter) []*Lead {
	if filter.Offset >= len(leads) {
		return []*Lead{}
	}
	leads = leads[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(leads) {
		leads = leads[:filter.Limit]
	}
	return leads
}

func cloneLead(l *Lead) *Lead {
	if l == nil {
		return nil
	}
	out := *l
	if l.CustomFields != nil {
		out.CustomFields = make(map[string]any, len(l.CustomFields))
		for k, v := range l.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return &out
}
