package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dori/tasktree/internal/model"
	"github.com/google/uuid"
)

// GetTags returns all tags of an owner
func (db *DB) GetTags(ownerID string) ([]model.Tag, error) {
	rows, err := db.Query(`
		SELECT id, owner_id, name, color, created_at
		FROM tags
		WHERE owner_id = ?
		ORDER BY name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	return scanTags(rows)
}

// GetTag returns a single tag by ID
func (db *DB) GetTag(id string) (*model.Tag, error) {
	var t model.Tag
	err := db.QueryRow(`
		SELECT id, owner_id, name, color, created_at
		FROM tags WHERE id = ?
	`, id).Scan(&t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTagByName returns the owner's tag with exactly this name
func (db *DB) GetTagByName(ownerID, name string) (*model.Tag, error) {
	var t model.Tag
	err := db.QueryRow(`
		SELECT id, owner_id, name, color, created_at
		FROM tags WHERE owner_id = ? AND name = ?
	`, ownerID, name).Scan(&t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag creates a new tag
func (db *DB) CreateTag(ownerID, name, color string) (*model.Tag, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := db.Exec(`
		INSERT INTO tags (id, owner_id, name, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, ownerID, name, color, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}

	return &model.Tag{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Color:     color,
		CreatedAt: now,
	}, nil
}

// GetOrCreateTag gets a tag by name or creates it if it doesn't exist
func (db *DB) GetOrCreateTag(ownerID, name, color string) (*model.Tag, error) {
	tag, err := db.GetTagByName(ownerID, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}
	return db.CreateTag(ownerID, name, color)
}

// UpdateTagColor sets the tag's color
func (db *DB) UpdateTagColor(id, color string) error {
	_, err := db.Exec(`UPDATE tags SET color = ? WHERE id = ?`, color, id)
	return err
}

// DeleteTag deletes a tag and its task links
func (db *DB) DeleteTag(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM task_tags WHERE tag_id = ?`, id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`DELETE FROM tags WHERE id = ?`, id)
		return err
	})
}

// GetTaskTags returns tags for a task
func (db *DB) GetTaskTags(taskID string) ([]model.Tag, error) {
	rows, err := db.Query(`
		SELECT t.id, t.owner_id, t.name, t.color, t.created_at
		FROM tags t
		JOIN task_tags tt ON t.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY t.name
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task tags: %w", err)
	}
	return scanTags(rows)
}

// AddTagToTask adds a tag to a task
func (db *DB) AddTagToTask(taskID, tagID string) error {
	_, err := db.Exec(`
		INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)
	`, taskID, tagID)
	return err
}

// RemoveTagFromTask removes a tag from a task
func (db *DB) RemoveTagFromTask(taskID, tagID string) error {
	_, err := db.Exec(`
		DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?
	`, taskID, tagID)
	return err
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
