package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
)

// Directory is an in-memory chat.Directory.
type Directory struct {
	mu    sync.RWMutex
	users map[string]model.User
}

var _ chat.Directory = (*Directory)(nil)

func NewDirectory(users ...model.User) *Directory {
	d := &Directory{users: make(map[string]model.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *Directory) Put(u model.User) {
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
}

func (d *Directory) GetUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]model.User, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// ListByRole returns users ordered by id.
func (d *Directory) ListByRole(ctx context.Context, role model.PlatformRole) ([]model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.User
	for _, u := range d.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Catalog is an in-memory chat.Catalog.
type Catalog struct {
	mu      sync.RWMutex
	courses map[string]model.Course
}

var _ chat.Catalog = (*Catalog)(nil)

func NewCatalog(courses ...model.Course) *Catalog {
	c := &Catalog{courses: make(map[string]model.Course)}
	for _, co := range courses {
		c.courses[co.ID] = co
	}
	return c
}

func (c *Catalog) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	co, ok := c.courses[id]
	if !ok {
		return nil, chat.ErrNotFound
	}
	return &co, nil
}
