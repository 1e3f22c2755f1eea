package model

import "time"

// ChunkRecord 对应于数据库中的 chunk_records 表，保存每次构建产生的分块，便于排查检索结果。
type ChunkRecord struct {
	ID           uint      `gorm:"primaryKey;autoIncrement;column:id"`
	SessionID    string    `gorm:"type:varchar(64);not null;index;column:session_id"`
	ChunkID      string    `gorm:"type:varchar(255);not null;column:chunk_id"`
	Source       string    `gorm:"type:varchar(255);not null;column:source"`
	Page         int       `gorm:"not null;column:page"`
	ChunkIndex   int       `gorm:"not null;column:chunk_index"`
	TextContent  string    `gorm:"type:text;column:text_content"`
	ModelVersion string    `gorm:"type:varchar(100);column:model_version"`
	CreatedAt    time.Time `gorm:"autoCreateTime;column:created_at"`
}

func (ChunkRecord) TableName() string {
	return "chunk_records"
}
