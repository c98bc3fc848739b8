// Package docstore persists ingested documents via gorm+postgres,
// the SPEC_FULL.md §3 supplement to spec.md's in-memory Document
// entity: a durable record of what has been ingested, independent of
// the embedding index's own storage. Grounded on the gorm wiring
// style of go-enhanced-rag-service's database layer.
package docstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoredDocument is the persisted row for an ingested document.
// IngestID correlates a single ingest run across the store, the event
// publisher and log lines, independent of the content-addressed DocID.
type StoredDocument struct {
	DocID       string `gorm:"primaryKey;size:64"`
	IngestID    string `gorm:"size:36;index"`
	URL         string `gorm:"size:2048;index"`
	MIME        string `gorm:"size:128"`
	ChunkCount  int
	TextBytes   int
	IngestedAt  time.Time
	LastEvicted *time.Time
}

func (StoredDocument) TableName() string { return "stored_documents" }

// Store wraps a gorm DB handle scoped to StoredDocument rows.
type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&StoredDocument{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Upsert records (or re-records) an ingested document. Idempotent per
// DocID, mirroring the EmbeddingIndex's own idempotent Add.
func (s *Store) Upsert(ctx context.Context, doc StoredDocument) error {
	if doc.IngestID == "" {
		doc.IngestID = uuid.NewString()
	}
	return s.db.WithContext(ctx).
		Where(StoredDocument{DocID: doc.DocID}).
		Assign(doc).
		FirstOrCreate(&StoredDocument{}).Error
}

func (s *Store) Get(ctx context.Context, docID string) (StoredDocument, bool, error) {
	var doc StoredDocument
	err := s.db.WithContext(ctx).Where("doc_id = ?", docID).First(&doc).Error
	if err == gorm.ErrRecordNotFound {
		return StoredDocument{}, false, nil
	}
	if err != nil {
		return StoredDocument{}, false, err
	}
	return doc, true, nil
}

// MarkEvicted records that a document's vectors were removed from the
// embedding index, per spec.md §4.8's state machine's terminal
// "Evicted" transition.
func (s *Store) MarkEvicted(ctx context.Context, docID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).
		Model(&StoredDocument{}).
		Where("doc_id = ?", docID).
		Update("last_evicted", now).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
