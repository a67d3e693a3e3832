package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/danghoangviet/Twitter-Api-Clone/internal/media"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/middleware"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "media-service"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*media.VideoStatus
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*media.VideoStatus)}
}

func (s *memoryStore) Insert(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.records[name] = &media.VideoStatus{Name: name, Status: media.StatusPending.String(), CreatedAt: now, UpdatedAt: now}
	return nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, name string, status media.EncodingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[name]
	if !ok {
		return errno.ErrVideoNotFound
	}
	record.Status = status.String()
	return nil
}

func (s *memoryStore) UpdateError(_ context.Context, name, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[name]
	if !ok {
		return errno.ErrVideoNotFound
	}
	record.ErrorMessage = &msg
	return nil
}

func (s *memoryStore) Get(_ context.Context, name string) (*media.VideoStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[name]
	if !ok {
		return nil, errno.ErrVideoNotFound
	}
	copied := *record
	return &copied, nil
}

type noopTranscoder struct{}

func (noopTranscoder) EncodeHLS(context.Context, string, string) error { return nil }

type noopStorage struct{}

func (noopStorage) UploadFile(context.Context, string, string, string) error { return nil }
func (noopStorage) UploadDir(context.Context, string, string) (int, error)   { return 1, nil }

type testServer struct {
	engine *gin.Engine
	store  *memoryStore
	upload config.UploadConfig
}

func newTestServer(t *testing.T, queueCapacity int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemoryStore()
	// worker不启动，任务停在通道里，响应可确定性断言
	queue := media.NewEncodeQueue(media.EncodeQueueConfig{
		Store:      store,
		Storage:    noopStorage{},
		Transcoder: noopTranscoder{},
		Capacity:   queueCapacity,
		JobTimeout: time.Minute,
	})

	upload := config.UploadConfig{
		VideoDir:    t.TempDir(),
		MaxFileSize: 1 << 20,
	}
	public := config.PublicConfig{StorageBase: "cdn.example.com"}
	jwtCfg := config.JWTConfig{Secret: testSecret, Issuer: testIssuer}

	controller := NewMediaController(queue, store, upload, public)
	router := NewRouter(controller, jwtCfg)

	engine := gin.New()
	router.SetupMiddleware(engine)
	router.SetupRoutes(engine)

	return &testServer{engine: engine, store: store, upload: upload}
}

func signToken(t *testing.T, issuer string, expiresAt time.Time) string {
	t.Helper()
	claims := &middleware.AccessTokenClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func videoUploadRequest(t *testing.T, fieldName, fileName string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/medias/upload-video-hls", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type apiResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doRequest(t *testing.T, engine *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)

	var resp apiResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), err)
	}
	return recorder, resp
}

func TestUploadVideoHLS(t *testing.T) {
	srv := newTestServer(t, 16)

	req := videoUploadRequest(t, "video", "holiday.mp4", []byte("fake mp4 bytes"))
	req.Header.Set("Authorization", "Bearer "+signToken(t, testIssuer, time.Now().Add(time.Hour)))
	recorder, resp := doRequest(t, srv.engine, req)

	if recorder.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202; body: %s", recorder.Code, recorder.Body.String())
	}

	id, _ := resp.Data["id"].(string)
	if id == "" {
		t.Fatalf("missing id in response: %+v", resp.Data)
	}
	wantURL := "http://cdn.example.com/videos-hls/" + id + "/master.m3u8"
	if got := resp.Data["url"]; got != wantURL {
		t.Errorf("url = %v, want %q", got, wantURL)
	}
	if got := resp.Data["status_url"]; got != "/api/v1/medias/video-status/"+id {
		t.Errorf("status_url = %v", got)
	}

	// pending记录与落盘文件都已存在
	record, err := srv.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != media.StatusPending.String() {
		t.Errorf("record status = %q, want pending", record.Status)
	}
	if _, err := os.Stat(filepath.Join(srv.upload.VideoDir, id+".mp4")); err != nil {
		t.Errorf("saved upload missing: %v", err)
	}
}

func TestUploadVideoHLSValidation(t *testing.T) {
	token := "Bearer "

	tests := []struct {
		name       string
		request    func(t *testing.T) *http.Request
		wantStatus int
		wantCode   int
	}{
		{
			name: "missing file field",
			request: func(t *testing.T) *http.Request {
				return videoUploadRequest(t, "attachment", "clip.mp4", []byte("data"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   errno.ErrMissingParam.Code,
		},
		{
			name: "unsupported extension",
			request: func(t *testing.T) *http.Request {
				return videoUploadRequest(t, "video", "clip.gif", []byte("data"))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   errno.ErrFileTypeIllegal.Code,
		},
		{
			name: "empty file",
			request: func(t *testing.T) *http.Request {
				return videoUploadRequest(t, "video", "clip.mp4", nil)
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   errno.ErrFileSizeIllegal.Code,
		},
		{
			name: "oversized file",
			request: func(t *testing.T) *http.Request {
				return videoUploadRequest(t, "video", "clip.mp4", bytes.Repeat([]byte("x"), 2<<20))
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   errno.ErrFileSizeIllegal.Code,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 16)
			req := tt.request(t)
			req.Header.Set("Authorization", token+signToken(t, testIssuer, time.Now().Add(time.Hour)))
			recorder, resp := doRequest(t, srv.engine, req)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestUploadVideoHLSQueueFull(t *testing.T) {
	srv := newTestServer(t, 1)
	token := signToken(t, testIssuer, time.Now().Add(time.Hour))

	first := videoUploadRequest(t, "video", "a.mp4", []byte("data"))
	first.Header.Set("Authorization", "Bearer "+token)
	if recorder, _ := doRequest(t, srv.engine, first); recorder.Code != http.StatusAccepted {
		t.Fatalf("first upload status = %d", recorder.Code)
	}

	second := videoUploadRequest(t, "video", "b.mp4", []byte("data"))
	second.Header.Set("Authorization", "Bearer "+token)
	recorder, resp := doRequest(t, srv.engine, second)

	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", recorder.Code)
	}
	if resp.Code != errno.ErrEncodeQueueFull.Code {
		t.Errorf("code = %d, want %d", resp.Code, errno.ErrEncodeQueueFull.Code)
	}

	// 入队失败后落盘文件被回收，目录里只剩第一个上传
	entries, err := os.ReadDir(srv.upload.VideoDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("upload dir has %d files, want 1", len(entries))
	}
}

func TestUploadVideoHLSAuth(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"missing token", "", errno.ErrTokenInvalid.Code},
		{"malformed header", "Token abc", errno.ErrTokenInvalid.Code},
		{"wrong issuer", "", errno.ErrTokenInvalid.Code},
		{"expired token", "", errno.ErrTokenExpired.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, 16)
			req := videoUploadRequest(t, "video", "clip.mp4", []byte("data"))
			switch tt.name {
			case "wrong issuer":
				req.Header.Set("Authorization", "Bearer "+signToken(t, "someone-else", time.Now().Add(time.Hour)))
			case "expired token":
				req.Header.Set("Authorization", "Bearer "+signToken(t, testIssuer, time.Now().Add(-time.Hour)))
			default:
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
			}
			recorder, resp := doRequest(t, srv.engine, req)

			if recorder.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", recorder.Code)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestVideoStatus(t *testing.T) {
	srv := newTestServer(t, 16)
	if err := srv.store.Insert(context.Background(), "abc123"); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := srv.store.UpdateStatus(context.Background(), "abc123", media.StatusProcessing); err != nil {
		t.Fatalf("seed status: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/medias/video-status/abc123", nil)
	recorder, resp := doRequest(t, srv.engine, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", recorder.Code, recorder.Body.String())
	}
	if got := resp.Data["status"]; got != media.StatusProcessing.String() {
		t.Errorf("record status = %v, want processing", got)
	}
}

func TestVideoStatusNotFound(t *testing.T) {
	srv := newTestServer(t, 16)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/medias/video-status/nope", nil)
	recorder, resp := doRequest(t, srv.engine, req)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
	if resp.Code != errno.ErrVideoNotFound.Code {
		t.Errorf("code = %d, want %d", resp.Code, errno.ErrVideoNotFound.Code)
	}
}
