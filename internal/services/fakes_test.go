package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/internal/repositories/postgres"
)

type memUsers struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint]*models.User{}} }

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email || u.Username == user.Username {
			return postgres.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Unix(1700000000, 0)
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return postgres.ErrNotFound
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) SearchByUsername(_ context.Context, query string, excludeID uint) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.byID {
		if u.ID != excludeID && strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// memLists also serves as the collaborator store.
type memLists struct {
	mu     sync.Mutex
	nextID uint
	lists  map[uint]*models.List
	roles  map[uint]map[uint]string
	items  *memItems
}

func newMemLists(items *memItems) *memLists {
	return &memLists{lists: map[uint]*models.List{}, roles: map[uint]map[uint]string{}, items: items}
}

func (m *memLists) Create(_ context.Context, list *models.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	list.ID = m.nextID
	cp := *list
	m.lists[list.ID] = &cp
	m.roles[list.ID] = map[uint]string{}
	return nil
}

func (m *memLists) FindByID(_ context.Context, id uint) (*models.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *memLists) FindForUser(_ context.Context, userID uint) ([]models.ListResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ListResponse
	for id, l := range m.lists {
		role := m.roles[id][userID]
		if l.OwnerID == userID {
			role = models.RoleOwner
		}
		if role == "" {
			continue
		}
		out = append(out, models.ListResponse{ID: id, Name: l.Name, OwnerID: l.OwnerID, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memLists) CountItems(ctx context.Context, listID uint) (int64, error) {
	if m.items == nil {
		return 0, nil
	}
	items, _ := m.items.FindByList(ctx, listID)
	return int64(len(items)), nil
}

func (m *memLists) Update(_ context.Context, list *models.List) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *list
	m.lists[list.ID] = &cp
	return nil
}

func (m *memLists) Delete(_ context.Context, listID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[listID]; !ok {
		return postgres.ErrNotFound
	}
	delete(m.lists, listID)
	delete(m.roles, listID)
	return nil
}

func (m *memLists) RoleFor(_ context.Context, listID, userID uint) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[listID]
	if !ok {
		return "", postgres.ErrNotFound
	}
	if l.OwnerID == userID {
		return models.RoleOwner, nil
	}
	return m.roles[listID][userID], nil
}

func (m *memLists) Add(_ context.Context, c *models.ListCollaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[c.ListID][c.UserID]; ok {
		return postgres.ErrDuplicate
	}
	m.roles[c.ListID][c.UserID] = c.Role
	return nil
}

func (m *memLists) UpdateRole(_ context.Context, listID, userID uint, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[listID][userID]; !ok {
		return postgres.ErrNotFound
	}
	m.roles[listID][userID] = role
	return nil
}

func (m *memLists) Remove(_ context.Context, listID, userID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[listID][userID]; !ok {
		return postgres.ErrNotFound
	}
	delete(m.roles[listID], userID)
	return nil
}

func (m *memLists) FindByList(_ context.Context, listID uint) ([]models.CollaboratorResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CollaboratorResponse
	for userID, role := range m.roles[listID] {
		out = append(out, models.CollaboratorResponse{UserID: userID, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type memItems struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]*models.Item
	err    error
}

func newMemItems() *memItems { return &memItems{items: map[uint]*models.Item{}} }

func (m *memItems) Create(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	item.ID = m.nextID
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memItems) CreateBatch(ctx context.Context, items []models.Item) error {
	for i := range items {
		if err := m.Create(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memItems) FindByID(_ context.Context, listID, itemID uint) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.ListID != listID {
		return nil, postgres.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memItems) FindByList(_ context.Context, listID uint) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Item
	for _, it := range m.items {
		if it.ListID == listID {
			out = append(out, *it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memItems) Update(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memItems) Delete(_ context.Context, listID, itemID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok || it.ListID != listID {
		return postgres.ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *memItems) DeleteCompleted(_ context.Context, listID uint) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []models.Item
	for id, it := range m.items {
		if it.ListID == listID && it.Completed {
			removed = append(removed, *it)
			delete(m.items, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
	return removed, nil
}

type memCategories struct {
	mu       sync.Mutex
	mappings map[string]string
}

func newMemCategories() *memCategories { return &memCategories{mappings: map[string]string{}} }

func categoryKey(listID uint, name string) string {
	return fmt.Sprintf("%d:%s", listID, models.NormalizeItemName(name))
}

func (m *memCategories) Find(_ context.Context, listID uint, itemName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mappings[categoryKey(listID, itemName)], nil
}

func (m *memCategories) FindByList(_ context.Context, listID uint) ([]models.CategoryMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CategoryMapping
	prefix := fmt.Sprintf("%d:", listID)
	for k, v := range m.mappings {
		if strings.HasPrefix(k, prefix) {
			out = append(out, models.CategoryMapping{ListID: listID, ItemName: strings.TrimPrefix(k, prefix), Category: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (m *memCategories) Upsert(_ context.Context, listID uint, itemName, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[categoryKey(listID, itemName)] = category
	return nil
}

type memRecipes struct {
	mu      sync.Mutex
	nextID  uint
	recipes map[uint]*models.Recipe
}

func newMemRecipes() *memRecipes { return &memRecipes{recipes: map[uint]*models.Recipe{}} }

func (m *memRecipes) Create(_ context.Context, r *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *memRecipes) FindByID(_ context.Context, id uint) (*models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRecipes) FindByOwner(_ context.Context, ownerID uint) ([]models.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Recipe
	for _, r := range m.recipes {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRecipes) Update(_ context.Context, r *models.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.recipes[r.ID] = &cp
	return nil
}

func (m *memRecipes) SetImage(_ context.Context, id uint, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return postgres.ErrNotFound
	}
	r.ImageURL = url
	return nil
}

func (m *memRecipes) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(m.recipes, id)
	return nil
}

type fakeImages struct {
	uploaded []string
}

func (f *fakeImages) UploadImage(_ context.Context, filename, _ string, body io.Reader, _ int64) (string, error) {
	_, _ = io.ReadAll(body)
	f.uploaded = append(f.uploaded, filename)
	return "http://images.local/recipes/" + filename, nil
}

type fakeTokens struct{}

func (fakeTokens) IssueToken(user *models.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

// capturePublisher records every event published per list.
type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	lists  []uint
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, listID uint, event realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.lists = append(p.lists, listID)
	return p.err
}

func (p *capturePublisher) types() []realtime.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]realtime.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// fixture wires every service against the in-memory stores. User 1 owns
// list 1, user 2 is an editor and user 3 a viewer on it; user 4 has no access.
type fixture struct {
	users      *memUsers
	lists      *memLists
	items      *memItems
	categories *memCategories
	recipes    *memRecipes
	images     *fakeImages
	publisher  *capturePublisher

	listService     *ListService
	itemService     *ItemService
	categoryService *CategoryService
	recipeService   *RecipeService
	userService     *UserService
}

func newFixture() *fixture {
	f := &fixture{
		users:      newMemUsers(),
		items:      newMemItems(),
		categories: newMemCategories(),
		recipes:    newMemRecipes(),
		images:     &fakeImages{},
		publisher:  &capturePublisher{},
	}
	f.lists = newMemLists(f.items)

	ctx := context.Background()
	for _, name := range []string{"owner", "editor", "viewer", "stranger"} {
		_ = f.users.Create(ctx, &models.User{Username: name, Email: name + "@example.com"})
	}
	_ = f.lists.Create(ctx, &models.List{Name: "Groceries", OwnerID: 1})
	_ = f.lists.Add(ctx, &models.ListCollaborator{ListID: 1, UserID: 2, Role: models.RoleEditor})
	_ = f.lists.Add(ctx, &models.ListCollaborator{ListID: 1, UserID: 3, Role: models.RoleViewer})

	f.listService = NewListService(f.lists, f.lists, f.users)
	f.itemService = NewItemService(f.items, f.categories, f.listService, f.publisher)
	f.itemService.now = func() time.Time { return time.UnixMilli(1700000000000) }
	f.categoryService = NewCategoryService(f.categories, f.listService, f.publisher)
	f.categoryService.now = func() time.Time { return time.UnixMilli(1700000000000) }
	f.recipeService = NewRecipeService(f.recipes, f.items, f.categories, f.listService, f.images, f.publisher)
	f.userService = NewUserService(f.users, fakeTokens{})
	return f
}
