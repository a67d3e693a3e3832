package media

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/danghoangviet/Twitter-Api-Clone/internal/resource"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// ObjectStorage 对象存储客户端
type ObjectStorage interface {
	// UploadFile 上传单个本地文件；大文件的分片上传由客户端内部策略处理
	UploadFile(ctx context.Context, localPath, objectKey, contentType string) error
	// UploadDir 递归上传目录下所有文件，键为 keyPrefix/<相对路径>；返回上传文件数
	UploadDir(ctx context.Context, localDir, keyPrefix string) (int, error)
}

type minioStorage struct {
	minioResource *resource.MinioResource
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(minioResource *resource.MinioResource) ObjectStorage {
	return &minioStorage{minioResource: minioResource}
}

func (s *minioStorage) UploadFile(ctx context.Context, localPath, objectKey, contentType string) error {
	client := s.minioResource.GetClient()
	bucketName := s.minioResource.GetBucketName()

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file failed: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("get file info failed: %w", err)
	}

	if contentType == "" {
		contentType = ContentTypeFromPath(objectKey)
	}

	_, err = client.PutObject(ctx, bucketName, objectKey, file, fileInfo.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload file to minio failed: %w", err)
	}

	logger.Info("Uploaded object", map[string]interface{}{
		"object_key": objectKey,
		"local_path": localPath,
		"size":       fileInfo.Size(),
	})

	return nil
}

func (s *minioStorage) UploadDir(ctx context.Context, localDir, keyPrefix string) (int, error) {
	uploaded := 0
	base := filepath.Clean(localDir)
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		key := ObjectKey(keyPrefix, rel)
		if err := s.UploadFile(ctx, path, key, ""); err != nil {
			return err
		}
		uploaded++
		return nil
	})
	if err != nil {
		return uploaded, err
	}
	return uploaded, nil
}

// ObjectKey 拼接对象键，统一使用斜杠分隔
func ObjectKey(prefix, relPath string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + filepath.ToSlash(relPath)
}

// ContentTypeFromPath 根据文件扩展名获取内容类型
func ContentTypeFromPath(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "application/octet-stream"
	}
}
