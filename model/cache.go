package model

import (
	"time"

	"gorm.io/datatypes"
)

// CacheRecord is one key of the SQL-backed cache store.
type CacheRecord struct {
	Key       string         `gorm:"primaryKey;column:cache_key;size:191" json:"key"`
	Value     datatypes.JSON `gorm:"not null" json:"value"`
	ExpireAt  *time.Time     `gorm:"index" json:"expire_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (CacheRecord) TableName() string { return "cache_records" }
