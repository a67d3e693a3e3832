package media

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
)

// StatusStore 视频状态存储
type StatusStore interface {
	// Insert 以pending状态建档；同名记录被覆盖，开启新一轮生命周期
	Insert(ctx context.Context, name string) error
	// UpdateStatus 更新状态并刷新updated_at；记录不存在时返回errno.ErrVideoNotFound
	UpdateStatus(ctx context.Context, name string, status EncodingStatus) error
	// UpdateError 记录失败原因
	UpdateError(ctx context.Context, name, msg string) error
	// Get 按任务标识查询；不存在时返回errno.ErrVideoNotFound
	Get(ctx context.Context, name string) (*VideoStatus, error)
}

type videoStatusDAO struct {
	db *gorm.DB
}

// NewVideoStatusStore 创建基于gorm的状态存储
func NewVideoStatusStore(db *gorm.DB) StatusStore {
	return &videoStatusDAO{db: db}
}

func (d *videoStatusDAO) Insert(ctx context.Context, name string) error {
	now := time.Now()
	record := &VideoStatus{
		Name:      name,
		Status:    StatusPending.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":        StatusPending.String(),
				"error_message": nil,
				"created_at":    now,
				"updated_at":    now,
			}),
		}).
		Create(record).Error
}

func (d *videoStatusDAO) UpdateStatus(ctx context.Context, name string, status EncodingStatus) error {
	result := d.db.WithContext(ctx).
		Model(&VideoStatus{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errno.ErrVideoNotFound
	}
	return nil
}

func (d *videoStatusDAO) UpdateError(ctx context.Context, name, msg string) error {
	result := d.db.WithContext(ctx).
		Model(&VideoStatus{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"error_message": truncateError(msg, 480),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errno.ErrVideoNotFound
	}
	return nil
}

func (d *videoStatusDAO) Get(ctx context.Context, name string) (*VideoStatus, error) {
	var record VideoStatus
	if err := d.db.WithContext(ctx).Where("name = ?", name).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.ErrVideoNotFound
		}
		return nil, err
	}
	return &record, nil
}

// truncateError ensures error messages won't overflow the DB column.
func truncateError(msg string, max int) string {
	if max <= 0 {
		return msg
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max])
}
