package repository

import (
	"database/sql"
	"errors"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/config"
)

// ErrBatchLocked 批次已被其它排班任务锁定，调用方应稍后重试；不做自动重试
var ErrBatchLocked = errors.New("排班批次正在运行中，请稍后重试")

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
