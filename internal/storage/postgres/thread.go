package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"github.com/VitaminP8/tweed/internal/apperr"
	"github.com/VitaminP8/tweed/internal/thread"
	"github.com/VitaminP8/tweed/models"
)

// ThreadPostgresStorage хранит дерево треда JSON-документом. Колонки id и
// version главнее значений внутри документа.
type ThreadPostgresStorage struct{}

func NewThreadPostgresStorage() *ThreadPostgresStorage {
	return &ThreadPostgresStorage{}
}

func (s *ThreadPostgresStorage) CreateThread(_ context.Context, t *thread.Tree) error {
	root, _ := t.Root()
	id := uuid.NewString()

	doc := t.Clone()
	doc.ID, doc.Version = id, 1
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not encode thread: %w", err)
	}

	row := &models.Thread{
		ID:         id,
		RootPostID: root,
		Version:    1,
		Tree:       string(data),
	}
	if err := DB.Create(row).Error; err != nil {
		return fmt.Errorf("could not create thread: %w", err)
	}

	t.ID, t.Version = id, 1
	return nil
}

func (s *ThreadPostgresStorage) GetThreadById(_ context.Context, id string) (*thread.Tree, error) {
	var row models.Thread
	err := DB.Where("id = ?", id).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, apperr.NotFound("thread", id)
	}
	if err != nil {
		return nil, fmt.Errorf("could not get thread by id: %w", err)
	}

	t := &thread.Tree{}
	if err := json.Unmarshal([]byte(row.Tree), t); err != nil {
		return nil, fmt.Errorf("could not decode thread %s: %w", id, err)
	}
	t.ID, t.Version = row.ID, row.Version
	return t, nil
}

// SaveThread перезаписывает документ, только если версия в базе совпадает с
// загруженной
func (s *ThreadPostgresStorage) SaveThread(_ context.Context, t *thread.Tree) error {
	next := t.Version + 1

	doc := t.Clone()
	doc.Version = next
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("could not encode thread: %w", err)
	}

	res := DB.Model(&models.Thread{}).
		Where("id = ? AND version = ?", t.ID, t.Version).
		Updates(map[string]interface{}{
			"tree":    string(data),
			"version": next,
		})
	if res.Error != nil {
		return fmt.Errorf("could not save thread: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int
		if err := DB.Model(&models.Thread{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("could not check thread: %w", err)
		}
		if count == 0 {
			return apperr.NotFound("thread", t.ID)
		}
		return apperr.ErrVersionConflict
	}

	t.Version = next
	return nil
}
