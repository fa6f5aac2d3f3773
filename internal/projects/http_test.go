package projects

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furniscan/furniscan-backend/internal/auth"
)

type fakeStore struct {
	projects map[string]*Project // id -> project
	owner    string
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: map[string]*Project{}, owner: "user-1"}
}

func (f *fakeStore) Create(ctx context.Context, userDBID string, in CreateProject) (*Project, error) {
	f.seq++
	p := &Project{
		ID:           "p-" + strings.Repeat("0", 3) + string(rune('0'+f.seq)),
		Title:        in.Title,
		ImageURL:     in.ImageURL,
		ThumbnailURL: in.ThumbnailURL,
		FullText:     in.FullText,
		Materials:    orEmpty(in.Materials),
		Measurements: orEmpty(in.Measurements),
		Instructions: orEmpty(in.Instructions),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeStore) Get(ctx context.Context, userDBID, projectID string) (*Project, error) {
	p, ok := f.projects[projectID]
	if !ok || userDBID != f.owner {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) List(ctx context.Context, userDBID string) ([]Project, error) {
	if userDBID != f.owner {
		return []Project{}, nil
	}
	out := make([]Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, userDBID, projectID string, in UpdateProject) (*Project, error) {
	p, ok := f.projects[projectID]
	if !ok || userDBID != f.owner {
		return nil, ErrNotFound
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.FullText != nil {
		p.FullText = *in.FullText
	}
	if in.Materials != nil {
		p.Materials = in.Materials
	}
	p.UpdatedAt = time.Now()
	return p, nil
}

func (f *fakeStore) Delete(ctx context.Context, userDBID, projectID string) (string, string, error) {
	p, ok := f.projects[projectID]
	if !ok || userDBID != f.owner {
		return "", "", ErrNotFound
	}
	delete(f.projects, projectID)
	return p.ImageURL, p.ThumbnailURL, nil
}

type fakeRemover struct {
	deleted []string
	err     error
}

func (f *fakeRemover) DeleteByURL(ctx context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, url)
	return nil
}

func testRouter(store Store, remover ObjectRemover) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Stand-in for the auth middleware: every request is user-1.
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserDBID, "user-1")
		c.Next()
	})
	Register(r.Group("/projects"), store, remover, nil)
	return r
}

func TestCreateAndGet(t *testing.T) {
	store := newFakeStore()
	r := testRouter(store, &fakeRemover{})

	body := `{"title":"Bookshelf","image_url":"https://store/images/u/1.jpg","materials":["Madera"]}`
	req := httptest.NewRequest("POST", "/projects", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		OK      bool     `json:"ok"`
		Project *Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "Bookshelf", resp.Project.Title)
	// Lists default to empty, never absent.
	assert.NotNil(t, resp.Project.Measurements)
	assert.NotNil(t, resp.Project.Instructions)
}

func TestCreate_RejectsEmptyTitle(t *testing.T) {
	r := testRouter(newFakeStore(), &fakeRemover{})

	req := httptest.NewRequest("POST", "/projects", strings.NewReader(`{"title":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDelete_RemovesFromList(t *testing.T) {
	store := newFakeStore()
	remover := &fakeRemover{}
	r := testRouter(store, remover)

	p, err := store.Create(context.Background(), "user-1", CreateProject{
		Title:        "Desk",
		ImageURL:     "https://store/images/u/2.jpg",
		ThumbnailURL: "https://store/images/u/2_thumb.jpg",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/projects/"+p.ID, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	items, err := store.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, []string{"https://store/images/u/2.jpg", "https://store/images/u/2_thumb.jpg"}, remover.deleted)
}

func TestDelete_SucceedsWhenImageCleanupFails(t *testing.T) {
	store := newFakeStore()
	r := testRouter(store, &fakeRemover{err: errors.New("storage down")})

	p, err := store.Create(context.Background(), "user-1", CreateProject{
		Title:    "Chair",
		ImageURL: "https://store/images/u/3.jpg",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("DELETE", "/projects/"+p.ID, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	// Record deletion is the source of truth for "deleted".
	require.Equal(t, http.StatusOK, rr.Code)
	items, err := store.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDelete_NotFound(t *testing.T) {
	r := testRouter(newFakeStore(), &fakeRemover{})

	req := httptest.NewRequest("DELETE", "/projects/nope", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdate_PartialFields(t *testing.T) {
	store := newFakeStore()
	r := testRouter(store, &fakeRemover{})

	p, err := store.Create(context.Background(), "user-1", CreateProject{
		Title:    "Wardrobe",
		FullText: "original text",
	})
	require.NoError(t, err)

	req := httptest.NewRequest("PATCH", "/projects/"+p.ID, strings.NewReader(`{"materials":["Tornillos"]}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	got, err := store.Get(context.Background(), "user-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tornillos"}, got.Materials)
	// Unsent fields keep their value.
	assert.Equal(t, "Wardrobe", got.Title)
	assert.Equal(t, "original text", got.FullText)
}

func TestUpdate_RejectsBlankTitle(t *testing.T) {
	store := newFakeStore()
	r := testRouter(store, &fakeRemover{})

	p, _ := store.Create(context.Background(), "user-1", CreateProject{Title: "Bed"})

	req := httptest.NewRequest("PATCH", "/projects/"+p.ID, strings.NewReader(`{"title":" "}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
