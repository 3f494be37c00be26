package leads

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRepository_CreateOrGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	lead, created, err := repo.CreateOrGet(ctx, &Lead{
		Name:   "Jane Smith",
		Email:  "jane@example.com",
		Source: SourceConstruction,
		Status: StatusNew,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected first insert to create")
	}
	if lead.ID == "" {
		t.Error("expected lead ID to be set")
	}
	if lead.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	again, created, err := repo.CreateOrGet(ctx, &Lead{
		Name:   "Jane S.",
		Email:  "JANE@example.com",
		Source: SourceConstruction,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected duplicate to be detected")
	}
	if again.ID != lead.ID || again.Name != "Jane Smith" {
		t.Fatalf("expected original lead back, got %+v", again)
	}

	_, created, err = repo.CreateOrGet(ctx, &Lead{Name: "Jane", Email: "jane@example.com", Source: SourceLeadMagnet})
	if err != nil || !created {
		t.Fatalf("expected a different source to create a new lead, created=%v err=%v", created, err)
	}
	if repo.Len() != 2 {
		t.Fatalf("expected 2 leads, got %d", repo.Len())
	}
}

func TestRepository_ConcurrentDuplicatesCreateOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := repo.CreateOrGet(ctx, &Lead{Name: "Race", Email: "race@example.com", Source: SourceDirect})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Fatalf("expected exactly one create, got %d", createdCount)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected one stored lead, got %d", repo.Len())
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, _, err := repo.CreateOrGet(ctx, &Lead{Name: "Test User", Email: "test@example.com", Source: SourceDirect})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected ID %s, got %s", created.ID, found.ID)
	}
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestRepository_ListNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		source := SourceConstruction
		if i == 1 {
			source = SourceLeadMagnet
		}
		if _, _, err := repo.CreateOrGet(ctx, &Lead{Name: "Lead", Email: email, Source: source, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := repo.List(ctx, ListFilter{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].Email != "c@example.com" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	construction, _ := repo.List(ctx, ListFilter{Source: SourceConstruction, Limit: 10})
	if len(construction) != 2 {
		t.Fatalf("expected 2 construction leads, got %d", len(construction))
	}

	page, _ := repo.List(ctx, ListFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].Email != "b@example.com" {
		t.Fatalf("unexpected page %+v", page)
	}

	empty, _ := repo.List(ctx, ListFilter{Limit: 5, Offset: 10})
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d", len(empty))
	}
}
