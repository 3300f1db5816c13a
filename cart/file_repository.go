package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"myaje.io/checkout/models"
)

var _ Repository = (*FileRepository)(nil)

// FileRepository persists the cart snapshot as a JSON file, the local
// equivalent of browser storage.
type FileRepository struct {
	path   string
	logger *zap.Logger
}

func NewFileRepository(path string, logger *zap.Logger) *FileRepository {
	return &FileRepository{path: path, logger: logger}
}

func (r *FileRepository) Load(_ context.Context) ([]models.CartItem, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cart file: %w", err)
	}
	return decodeItems(data)
}

func (r *FileRepository) Save(_ context.Context, items []models.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}

	if err = os.WriteFile(r.path, data, 0o600); err != nil {
		r.logger.Error("Failed to write cart file", zap.String("path", r.path), zap.Error(err))
		return fmt.Errorf("write cart file: %w", err)
	}
	return nil
}

func (r *FileRepository) Delete(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cart file: %w", err)
	}
	return nil
}
