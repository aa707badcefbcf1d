package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lunch-system/internal/database/models"
	"lunch-system/internal/domain"
)

// SQLStore keeps the document in a single lunch_documents row.
type SQLStore struct {
	db  *gorm.DB
	key string
}

func NewSQLStore(db *gorm.DB, key string) *SQLStore {
	if key == "" {
		key = DefaultDocumentKey
	}
	return &SQLStore{db: db, key: key}
}

func (s *SQLStore) Mode() string { return ModePostgres }

func (s *SQLStore) Load(ctx context.Context) (domain.Document, error) {
	var row models.LunchDocument
	err := s.db.WithContext(ctx).Where("doc_key = ?", s.key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyDocument(), nil
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to load document: %w", err)
	}
	doc, err := decodeDocument([]byte(row.Payload))
	if err != nil {
		return domain.Document{}, err
	}
	doc.Revision = row.Revision
	return doc, nil
}

func (s *SQLStore) Save(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error) {
	stored, data, err := encodeDocument(doc, expected)
	if err != nil {
		return domain.Document{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if expected == 0 {
			// another writer may create the row first; that is a conflict, not a failure
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.LunchDocument{Key: s.key, Payload: string(data), Revision: stored.Revision})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrRevisionConflict
			}
			return nil
		}

		res := tx.Model(&models.LunchDocument{}).
			Where("doc_key = ? AND revision = ?", s.key, expected).
			Updates(map[string]interface{}{"payload": string(data), "revision": stored.Revision})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRevisionConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRevisionConflict) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("failed to save document: %w", err)
	}
	return stored, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
