package media

import "time"

// VideoStatus 视频编码状态持久化对象，一个上传任务对应一行
type VideoStatus struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Name         string    `gorm:"column:name;type:varchar(64);uniqueIndex" json:"name"`
	Status       string    `gorm:"column:status;type:varchar(20);index" json:"status"`
	ErrorMessage *string   `gorm:"column:error_message;type:varchar(500)" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (VideoStatus) TableName() string {
	return "video_status"
}
