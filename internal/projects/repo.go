package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("project not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Project is one saved unit of extracted-and-reviewed document content plus
// its source image reference. The three lists are never nil.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	FullText     string    `json:"full_text"`
	Materials    []string  `json:"materials"`
	Measurements []string  `json:"measurements"`
	Instructions []string  `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateProject struct {
	Title        string
	ImageURL     string
	ThumbnailURL string
	FullText     string
	Materials    []string
	Measurements []string
	Instructions []string
}

// UpdateProject carries partial-field semantics: nil means "leave unchanged".
type UpdateProject struct {
	Title        *string
	ImageURL     *string
	FullText     *string
	Materials    []string
	Measurements []string
	Instructions []string
}

const projectColumns = `
id::text, title, image_url, thumbnail_url, full_text,
materials, measurements, instructions, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.ImageURL, &p.ThumbnailURL, &p.FullText,
		&p.Materials, &p.Measurements, &p.Instructions, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	normalize(&p)
	return &p, nil
}

// normalize keeps the list invariant: empty, never absent.
func normalize(p *Project) {
	if p.Materials == nil {
		p.Materials = []string{}
	}
	if p.Measurements == nil {
		p.Measurements = []string{}
	}
	if p.Instructions == nil {
		p.Instructions = []string{}
	}
}

func (r *Repo) Create(ctx context.Context, userDBID string, in CreateProject) (*Project, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("title required")
	}

	q := `
insert into projects (user_id, title, image_url, thumbnail_url, full_text, materials, measurements, instructions)
values ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
returning ` + projectColumns + `;`

	row := r.db.QueryRow(ctx, q, userDBID, in.Title, in.ImageURL, in.ThumbnailURL, in.FullText,
		orEmpty(in.Materials), orEmpty(in.Measurements), orEmpty(in.Instructions))
	return scanProject(row)
}

func (r *Repo) Get(ctx context.Context, userDBID, projectID string) (*Project, error) {
	q := `
select ` + projectColumns + `
from projects
where user_id = $1::uuid and id = $2::uuid;`

	return scanProject(r.db.QueryRow(ctx, q, userDBID, projectID))
}

// List returns the caller's projects, most recently updated first.
func (r *Repo) List(ctx context.Context, userDBID string) ([]Project, error) {
	q := `
select ` + projectColumns + `
from projects
where user_id = $1::uuid
order by updated_at desc;`

	rows, err := r.db.Query(ctx, q, userDBID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Title, &p.ImageURL, &p.ThumbnailURL, &p.FullText,
			&p.Materials, &p.Measurements, &p.Instructions, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		normalize(&p)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies only the provided fields and refreshes updated_at.
func (r *Repo) Update(ctx context.Context, userDBID, projectID string, in UpdateProject) (*Project, error) {
	sets := []string{"updated_at = now()"}
	args := []any{userDBID, projectID}

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.ImageURL != nil {
		add("image_url", *in.ImageURL)
	}
	if in.FullText != nil {
		add("full_text", *in.FullText)
	}
	if in.Materials != nil {
		add("materials", in.Materials)
	}
	if in.Measurements != nil {
		add("measurements", in.Measurements)
	}
	if in.Instructions != nil {
		add("instructions", in.Instructions)
	}

	q := `
update projects
set ` + strings.Join(sets, ", ") + `
where user_id = $1::uuid and id = $2::uuid
returning ` + projectColumns + `;`

	return scanProject(r.db.QueryRow(ctx, q, args...))
}

// Delete removes the record and reports the stored image locations so the
// caller can attempt best-effort object cleanup. The record deletion is the
// source of truth for "deleted".
func (r *Repo) Delete(ctx context.Context, userDBID, projectID string) (imageURL, thumbnailURL string, err error) {
	const q = `
delete from projects
where user_id = $1::uuid and id = $2::uuid
returning image_url, thumbnail_url;`

	err = r.db.QueryRow(ctx, q, userDBID, projectID).Scan(&imageURL, &thumbnailURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	return imageURL, thumbnailURL, nil
}

// ListImageURLs returns every image and thumbnail URL referenced by any
// project. Used by the janitor to identify unreferenced uploads.
func (r *Repo) ListImageURLs(ctx context.Context) ([]string, error) {
	const q = `select image_url, thumbnail_url from projects;`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []string
	for rows.Next() {
		var img, thumb string
		if err := rows.Scan(&img, &thumb); err != nil {
			return nil, err
		}
		if img != "" {
			refs = append(refs, img)
		}
		if thumb != "" {
			refs = append(refs, thumb)
		}
	}
	return refs, rows.Err()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
