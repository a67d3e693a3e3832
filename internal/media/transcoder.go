package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// Transcoder 将单个源视频转为HLS输出目录（各码率变体 + master playlist）
type Transcoder interface {
	EncodeHLS(ctx context.Context, inputPath, outputDir string) error
}

type ffmpegTranscoder struct {
	cfg config.EncodeConfig
}

// NewFFmpegTranscoder 创建FFmpeg转码器
func NewFFmpegTranscoder(cfg config.EncodeConfig) Transcoder {
	return &ffmpegTranscoder{cfg: cfg}
}

// EncodeHLS 逐个变体切片，最后生成master playlist
func (t *ffmpegTranscoder) EncodeHLS(ctx context.Context, inputPath, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}

	var masterEntries []string
	for _, variant := range t.cfg.Variants {
		logger.Infof("encode variant input=%s resolution=%s bitrate=%s", inputPath, variant.Resolution, variant.Bitrate)

		playlistName, err := t.encodeVariant(ctx, inputPath, outputDir, variant)
		if err != nil {
			return err
		}
		masterEntries = append(masterEntries, masterPlaylistEntry(variant, playlistName))
	}

	masterPath := filepath.Join(outputDir, "master.m3u8")
	if err := writeMasterPlaylist(masterPath, masterEntries); err != nil {
		return fmt.Errorf("write master playlist failed: %w", err)
	}

	logger.Infof("hls encode finished input=%s output_dir=%s variants=%d", inputPath, outputDir, len(t.cfg.Variants))
	return nil
}

func (t *ffmpegTranscoder) encodeVariant(ctx context.Context, inputPath, outputDir string, variant config.VariantConfig) (string, error) {
	playlistName := fmt.Sprintf("playlist_%s.m3u8", variant.Resolution)
	args := buildVariantArgs(t.cfg.FFmpeg, inputPath, outputDir, variant)

	binary := t.cfg.FFmpeg.BinaryPath
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	logger.Debugf("run ffmpeg input=%s command=%s", inputPath, binary+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Errorf("ffmpeg failed input=%s error=%v output=%s", inputPath, err, string(output))
		return "", fmt.Errorf("ffmpeg failed: %w, output: %s", err, string(output))
	}

	return playlistName, nil
}

// buildVariantArgs 构建单个变体的FFmpeg参数
func buildVariantArgs(ffcfg config.FFmpegConfig, inputPath, outputDir string, variant config.VariantConfig) []string {
	videoCodec := ffcfg.VideoCodec
	if strings.TrimSpace(videoCodec) == "" {
		videoCodec = "libx264"
	}
	// 0 交给ffmpeg自动选择线程数
	threads := ffcfg.Threads
	if threads < 0 {
		threads = 0
	}
	segmentDuration := ffcfg.SegmentDuration
	if segmentDuration <= 0 {
		segmentDuration = 6
	}

	playlistName := fmt.Sprintf("playlist_%s.m3u8", variant.Resolution)
	segmentPattern := fmt.Sprintf("segment_%s_%%03d.ts", variant.Resolution)

	args := make([]string, 0, 32)
	args = append(args,
		"-probesize", "5M",
		"-analyzeduration", "5M",
		"-i", inputPath,
		"-c:v", videoCodec,
		"-c:a", "aac",
	)

	// 按配置解析目标高度，无法解析时保留源尺寸
	if height, err := parseResolutionHeight(variant.Resolution); err != nil {
		logger.Warnf("invalid HLS resolution; use source height resolution=%s err=%v", variant.Resolution, err)
		args = append(args, "-pix_fmt", "yuv420p")
	} else {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d,format=yuv420p", height))
	}

	if preset := strings.TrimSpace(ffcfg.VideoPreset); preset != "" {
		args = append(args, "-preset", preset)
	}

	args = append(args,
		"-b:v", variant.Bitrate,
		"-b:a", "128k",
		"-threads", strconv.Itoa(threads),
		"-sc_threshold", "0",
		"-keyint_min", "48",
		"-g", "48",
		"-force_key_frames", fmt.Sprintf("expr:gte(t,n*%d)", segmentDuration),
		"-hls_flags", "independent_segments",
		"-hls_time", strconv.Itoa(segmentDuration),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(outputDir, segmentPattern),
		"-f", "hls",
		filepath.Join(outputDir, playlistName),
	)

	return args
}

func writeMasterPlaylist(masterPath string, entries []string) error {
	content := "#EXTM3U\n#EXT-X-VERSION:3\n\n"
	for _, entry := range entries {
		content += entry + "\n"
	}
	return os.WriteFile(masterPath, []byte(content), 0o644)
}

// masterPlaylistEntry 创建master playlist条目
func masterPlaylistEntry(variant config.VariantConfig, playlistName string) string {
	bitrate, err := parseBitrateToBps(variant.Bitrate)
	if err != nil {
		logger.Warnf("invalid HLS bitrate bitrate=%s err=%v", variant.Bitrate, err)
		bitrate = 0
	}

	height, err := parseResolutionHeight(variant.Resolution)
	if err != nil {
		logger.Warnf("invalid HLS resolution resolution=%s err=%v", variant.Resolution, err)
		height = 0
	}
	width := 0
	if height > 0 {
		width = height * 16 / 9 // 假设16:9比例
	}

	return fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n%s",
		bitrate, width, height, playlistName)
}

// parseBitrateToBps 将 "2000k"/"2M"/"2000kbps"/"2mbps" 等解析为 bps
func parseBitrateToBps(bitrate string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(bitrate))
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}

	factor := 1.0
	switch {
	case strings.HasSuffix(s, "kbps"):
		factor = 1000
		s = strings.TrimSuffix(s, "kbps")
	case strings.HasSuffix(s, "mbps"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "mbps")
	case strings.HasSuffix(s, "k"):
		factor = 1000
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		factor = 1000 * 1000
		s = strings.TrimSuffix(s, "m")
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid bitrate: %s", bitrate)
	}
	return int(v * factor), nil
}

// parseResolutionHeight 将 "720p"/"1080"/"4K"/"2K" 转为高度值（720/1080/2160/1440）
func parseResolutionHeight(resolution string) (int, error) {
	s := strings.TrimSpace(strings.ToLower(resolution))
	if s == "" {
		return 0, fmt.Errorf("empty resolution")
	}
	switch s {
	case "4k":
		return 2160, nil
	case "2k":
		return 1440, nil
	}
	s = strings.TrimSuffix(s, "p")
	if s == "" {
		return 0, fmt.Errorf("invalid resolution: %s", resolution)
	}
	h, err := strconv.Atoi(s)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("invalid resolution: %s", resolution)
	}
	return h, nil
}
