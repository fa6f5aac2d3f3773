// Package scans runs the capture-to-save pipeline: an uploaded page image is
// stored, its content extracted, and the result held as an editable draft
// until the user saves it as a project or discards it.
package scans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	draftKeyPrefix   = "scan:draft:" // Key for draft data: scan:draft:{scan_id}
	userDraftsPrefix = "scan:user:"  // Set of draft IDs for a user: scan:user:{user_id}:drafts
	draftTTL         = 24 * time.Hour
)

var ErrDraftNotFound = errors.New("scan draft not found")

// Draft is an extracted scan awaiting review. It lives only in Redis and
// expires if never saved.
type Draft struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ImageURL     string    `json:"image_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Title        string    `json:"title"`
	FullText     string    `json:"full_text"`
	Materials    []string  `json:"materials"`
	Measurements []string  `json:"measurements"`
	Instructions []string  `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DraftRepository holds scan drafts in Redis with a rolling TTL.
type DraftRepository struct {
	client *redis.Client
}

func NewDraftRepository(client *redis.Client) *DraftRepository {
	return &DraftRepository{client: client}
}

// Create stores a new draft and indexes it under its owner.
func (r *DraftRepository) Create(ctx context.Context, draft *Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	now := time.Now()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	userKey := r.userDraftsKey(draft.UserID)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.draftKey(draft.ID), data, draftTTL)
	pipe.SAdd(ctx, userKey, draft.ID)
	pipe.Expire(ctx, userKey, draftTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

// Get retrieves a draft by ID.
func (r *DraftRepository) Get(ctx context.Context, scanID string) (*Draft, error) {
	data, err := r.client.Get(ctx, r.draftKey(scanID)).Result()
	if err == redis.Nil {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &draft, nil
}

// Update rewrites a draft and refreshes its TTL.
func (r *DraftRepository) Update(ctx context.Context, draft *Draft) error {
	draft.UpdatedAt = time.Now()

	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := r.client.Set(ctx, r.draftKey(draft.ID), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return nil
}

// Delete removes a draft and its owner index entry.
func (r *DraftRepository) Delete(ctx context.Context, scanID string) error {
	draft, err := r.Get(ctx, scanID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.draftKey(scanID))
	pipe.SRem(ctx, r.userDraftsKey(draft.UserID), scanID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// ListByUserID retrieves the draft IDs owned by a user. Expired drafts may
// still be listed until their index entry is pruned.
func (r *DraftRepository) ListByUserID(ctx context.Context, userID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.userDraftsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts for user: %w", err)
	}
	return ids, nil
}

// LiveImageURLs returns the image and thumbnail URLs referenced by any live
// draft. Used to keep sweeps from deleting uploads that are still pending
// review.
func (r *DraftRepository) LiveImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, draftKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan drafts: %w", err)
		}
		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read draft %s: %w", key, err)
			}
			var draft Draft
			if err := json.Unmarshal([]byte(data), &draft); err != nil {
				continue
			}
			if draft.ImageURL != "" {
				urls = append(urls, draft.ImageURL)
			}
			if draft.ThumbnailURL != "" {
				urls = append(urls, draft.ThumbnailURL)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return urls, nil
}

func (r *DraftRepository) draftKey(scanID string) string {
	return fmt.Sprintf("%s%s", draftKeyPrefix, scanID)
}

func (r *DraftRepository) userDraftsKey(userID string) string {
	return fmt.Sprintf("%s%s:drafts", userDraftsPrefix, userID)
}
