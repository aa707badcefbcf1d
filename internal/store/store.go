// Package store loads and saves the shared lunch document. Every backend
// stores the document whole and guards writes with a revision check.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lunch-system/internal/domain"
)

// ErrRevisionConflict means the stored document moved on since it was loaded.
var ErrRevisionConflict = errors.New("document revision conflict")

const (
	ModeFile     = "file"
	ModeRedis    = "redis"
	ModePostgres = "postgres"
)

type Store interface {
	// Load returns the current document; a missing document is an empty one
	// at revision 0.
	Load(ctx context.Context) (domain.Document, error)
	// Save writes doc if the stored revision still equals expected and
	// returns the document as stored, at revision expected+1.
	Save(ctx context.Context, doc domain.Document, expected int64) (domain.Document, error)
	Ping(ctx context.Context) error
	Mode() string
}

func emptyDocument() domain.Document {
	var doc domain.Document
	doc.Normalize()
	return doc
}

func decodeDocument(data []byte) (domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to decode document: %w", err)
	}
	doc.Normalize()
	return doc, nil
}

func encodeDocument(doc domain.Document, expected int64) (domain.Document, []byte, error) {
	doc.Normalize()
	doc.Revision = expected + 1
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.Document{}, nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return doc, data, nil
}
