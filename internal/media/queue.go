package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// hlsKeyPrefix 编码产物在对象存储中的命名空间
const hlsKeyPrefix = "videos-hls"

// EncodeQueueConfig 编码队列依赖与参数
type EncodeQueueConfig struct {
	Store      StatusStore
	Storage    ObjectStorage
	Transcoder Transcoder
	Publisher  StatusPublisher // 可选
	Capacity   int
	JobTimeout time.Duration
}

// EncodeQueue 进程内FIFO编码队列。
// 单消费者协程保证同一时刻最多一个转码在执行；Enqueue在pending记录
// 落库后立即返回，编码结果通过状态查询接口获取。
type EncodeQueue struct {
	store      StatusStore
	storage    ObjectStorage
	transcoder Transcoder
	publisher  StatusPublisher
	jobTimeout time.Duration

	jobs   chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	started  bool
	closed   bool
	encoding bool
}

// NewEncodeQueue 创建编码队列
func NewEncodeQueue(cfg EncodeQueueConfig) *EncodeQueue {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 100
	}
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = time.Hour
	}
	return &EncodeQueue{
		store:      cfg.Store,
		storage:    cfg.Storage,
		transcoder: cfg.Transcoder,
		publisher:  cfg.Publisher,
		jobTimeout: timeout,
		jobs:       make(chan string, capacity),
	}
}

// Start 启动消费者协程
func (q *EncodeQueue) Start() {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.mu.Unlock()

	q.wg.Add(1)
	go q.workerLoop(ctx)
}

// Shutdown 停止接收新任务并等待当前任务结束
func (q *EncodeQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	if q.cancel != nil {
		q.cancel()
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue 接收一个已保存到本地磁盘的视频文件。
// 同步写入pending状态记录（写入失败向调用方返回错误），随后把任务
// 交给消费者协程，不等待编码完成。
func (q *EncodeQueue) Enqueue(ctx context.Context, sourcePath string) error {
	if strings.TrimSpace(sourcePath) == "" {
		return errno.ErrMissingParam
	}
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return errno.ErrQueueClosed
	}

	name := JobIDFromPath(sourcePath)
	if err := q.store.Insert(ctx, name); err != nil {
		return err
	}
	q.notify(ctx, name, StatusPending)

	select {
	case q.jobs <- sourcePath:
		return nil
	default:
		// 队列已满：把刚建档的记录置为失败，不留永远不会推进的pending行
		if err := q.store.UpdateError(ctx, name, errno.ErrEncodeQueueFull.Error()); err != nil {
			logger.Warnf("record error message failed name=%s error=%v", name, err)
		}
		if err := q.store.UpdateStatus(ctx, name, StatusFailed); err != nil {
			logger.Warnf("mark failed failed name=%s error=%v", name, err)
		}
		q.notify(ctx, name, StatusFailed)
		return errno.ErrEncodeQueueFull
	}
}

// Size 当前等待中的任务数
func (q *EncodeQueue) Size() int {
	return len(q.jobs)
}

// IsEncoding 是否有任务正在编码
func (q *EncodeQueue) IsEncoding() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.encoding
}

func (q *EncodeQueue) workerLoop(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case sourcePath := <-q.jobs:
			q.setEncoding(true)
			q.process(ctx, sourcePath)
			q.setEncoding(false)
		}
	}
}

func (q *EncodeQueue) setEncoding(v bool) {
	q.mu.Lock()
	q.encoding = v
	q.mu.Unlock()
}

// process 驱动单个任务走完 processing → success|failed。
// 任务在取出时即离开等待队列：失败的任务不会被隐式重试，也不会
// 阻塞后续任务。
func (q *EncodeQueue) process(ctx context.Context, sourcePath string) {
	name := JobIDFromPath(sourcePath)

	if err := q.store.UpdateStatus(ctx, name, StatusProcessing); err != nil {
		logger.Warnf("mark processing failed name=%s error=%v", name, err)
	}
	q.notify(ctx, name, StatusProcessing)

	jobCtx, cancelJob := context.WithTimeout(ctx, q.jobTimeout)
	defer cancelJob()

	outputDir := filepath.Join(filepath.Dir(sourcePath), name)
	if err := q.transcoder.EncodeHLS(jobCtx, sourcePath, outputDir); err != nil {
		q.fail(name, sourcePath, err)
		return
	}

	uploaded, err := q.storage.UploadDir(jobCtx, outputDir, hlsKeyPrefix+"/"+name)
	if err != nil {
		q.fail(name, sourcePath, err)
		return
	}
	if uploaded == 0 {
		q.fail(name, sourcePath, errno.ErrNoFilesGenerated)
		return
	}

	// 清理本地源文件与输出目录；失败路径不清理，保留现场便于排查
	if err := os.Remove(sourcePath); err != nil {
		q.fail(name, sourcePath, err)
		return
	}
	if err := os.RemoveAll(outputDir); err != nil {
		q.fail(name, sourcePath, err)
		return
	}

	// 终态写入脱离worker上下文：优雅退出取消worker时结果也要落库
	termCtx := context.Background()
	if err := q.store.UpdateStatus(termCtx, name, StatusSuccess); err != nil {
		logger.Errorf("mark success failed name=%s error=%v", name, err)
	}
	q.notify(termCtx, name, StatusSuccess)
	logger.Infof("encode video success name=%s source=%s uploaded=%d", name, sourcePath, uploaded)
}

// fail 记录失败状态；状态写入自身的错误只记日志，不能让worker停摆。
// 写入用独立上下文：取消中的worker也要把终态记下来。
func (q *EncodeQueue) fail(name, sourcePath string, cause error) {
	ctx := context.Background()
	logger.Errorf("encode video failed name=%s source=%s error=%v", name, sourcePath, cause)
	if err := q.store.UpdateError(ctx, name, cause.Error()); err != nil {
		logger.Warnf("record error message failed name=%s error=%v", name, err)
	}
	if err := q.store.UpdateStatus(ctx, name, StatusFailed); err != nil {
		logger.Warnf("mark failed failed name=%s error=%v", name, err)
	}
	q.notify(ctx, name, StatusFailed)
}

func (q *EncodeQueue) notify(ctx context.Context, name string, status EncodingStatus) {
	if q.publisher == nil {
		return
	}
	if err := q.publisher.Publish(ctx, name, status); err != nil {
		logger.Warnf("publish status event failed name=%s status=%s error=%v", name, status, err)
	}
}

// JobIDFromPath 从源文件路径推导任务标识：文件名去掉扩展名
func JobIDFromPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
