package media

// EncodingStatus 视频编码任务状态
type EncodingStatus string

const (
	// StatusPending 待处理
	StatusPending EncodingStatus = "pending"
	// StatusProcessing 处理中
	StatusProcessing EncodingStatus = "processing"
	// StatusSuccess 编码成功
	StatusSuccess EncodingStatus = "success"
	// StatusFailed 编码失败
	StatusFailed EncodingStatus = "failed"
)

// IsValid 检查状态是否有效
func (s EncodingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSuccess, StatusFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s EncodingStatus) String() string {
	return string(s)
}

// IsTerminal 检查是否为最终状态
func (s EncodingStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s EncodingStatus) CanTransitionTo(target EncodingStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing
	case StatusProcessing:
		return target == StatusSuccess || target == StatusFailed
	default:
		return false
	}
}
