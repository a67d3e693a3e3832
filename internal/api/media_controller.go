package api

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/danghoangviet/Twitter-Api-Clone/internal/media"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/restapi"
)

// MediaController 媒体上传与状态查询控制器
type MediaController struct {
	queue  *media.EncodeQueue
	store  media.StatusStore
	upload config.UploadConfig
	public config.PublicConfig
}

// NewMediaController 创建媒体控制器
func NewMediaController(queue *media.EncodeQueue, store media.StatusStore, upload config.UploadConfig, public config.PublicConfig) *MediaController {
	return &MediaController{queue: queue, store: store, upload: upload, public: public}
}

// UploadVideoHLSResponse 上传响应：立即返回任务标识与可轮询的状态地址
type UploadVideoHLSResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	StatusURL string `json:"status_url"`
}

var allowedVideoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".webm": true,
}

// UploadVideoHLS 接收multipart视频文件，落盘后入编码队列，立即应答
func (c *MediaController) UploadVideoHLS(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("video")
	if err != nil {
		restapi.Failed(ctx, errno.ErrMissingParam)
		return
	}
	if err := c.validateVideo(fileHeader); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	// 以生成的标识命名落盘文件，标识即后续的任务主键
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	destPath := filepath.Join(c.upload.VideoDir, id+ext)
	if err := os.MkdirAll(c.upload.VideoDir, 0o755); err != nil {
		restapi.Failed(ctx, errno.ErrUploadError)
		return
	}
	if err := ctx.SaveUploadedFile(fileHeader, destPath); err != nil {
		restapi.Failed(ctx, errno.ErrUploadError)
		return
	}

	if err := c.queue.Enqueue(ctx.Request.Context(), destPath); err != nil {
		_ = os.Remove(destPath)
		restapi.Failed(ctx, err)
		return
	}

	restapi.Accepted(ctx, UploadVideoHLSResponse{
		ID:        id,
		URL:       c.masterPlaylistURL(id),
		StatusURL: fmt.Sprintf("/api/v1/medias/video-status/%s", id),
	})
}

// VideoStatus 按任务标识查询编码状态
func (c *MediaController) VideoStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	if strings.TrimSpace(id) == "" {
		restapi.Failed(ctx, errno.ErrMissingParam)
		return
	}

	record, err := c.store.Get(ctx.Request.Context(), id)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, record)
}

func (c *MediaController) validateVideo(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size <= 0 || (c.upload.MaxFileSize > 0 && fileHeader.Size > c.upload.MaxFileSize) {
		return errno.ErrFileSizeIllegal
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedVideoExts[ext] {
		return errno.ErrFileTypeIllegal
	}
	return nil
}

func (c *MediaController) masterPlaylistURL(id string) string {
	path := fmt.Sprintf("/videos-hls/%s/master.m3u8", id)
	base := strings.TrimSpace(c.public.StorageBase)
	if base == "" {
		return path
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/") + path
}
