package repository

import (
	"doc-qa-go/internal/model"

	"gorm.io/gorm"
)

// ChunkRepository 定义了对 chunk_records 表的数据操作接口。
type ChunkRepository interface {
	BatchCreate(records []*model.ChunkRecord) error
	FindBySessionID(sessionID string) ([]*model.ChunkRecord, error)
	DeleteBySessionID(sessionID string) error
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository 创建一个新的 ChunkRepository 实例。
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

// BatchCreate 批量创建分块记录。
func (r *chunkRepository) BatchCreate(records []*model.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.CreateInBatches(records, 100).Error // 每100条记录一批
}

// FindBySessionID 按写入顺序返回会话的所有分块记录。
func (r *chunkRepository) FindBySessionID(sessionID string) ([]*model.ChunkRecord, error) {
	var records []*model.ChunkRecord
	err := r.db.Where("session_id = ?", sessionID).Order("id").Find(&records).Error
	return records, err
}

// DeleteBySessionID 删除会话的所有分块记录。
func (r *chunkRepository) DeleteBySessionID(sessionID string) error {
	return r.db.Where("session_id = ?", sessionID).Delete(&model.ChunkRecord{}).Error
}
