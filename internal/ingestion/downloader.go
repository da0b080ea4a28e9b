package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

var videoIDPattern = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`)

// ExtractVideoID pulls the 11-character video id out of watch, share and
// embed URL forms.
func ExtractVideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(url)
	if len(m) < 2 || strings.TrimSpace(m[1]) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidReference, url)
	}
	return m[1], nil
}

// DownloadResult describes the fetched audio artifact and video metadata.
type DownloadResult struct {
	VideoID   string
	Title     string
	Duration  float64
	URL       string
	AudioPath string
}

// Downloader fetches a video's audio track and metadata.
type Downloader interface {
	Download(ctx context.Context, videoURL string) (*DownloadResult, error)
}

type ytdlpDownloader struct {
	log       *logger.Logger
	binary    string
	outputDir string
}

// NewDownloader shells out to yt-dlp. The binary must be on PATH (or set via
// YTDLP_PATH) and outputDir receives one audio file per video id.
func NewDownloader(log *logger.Logger, outputDir string) (Downloader, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	binary := strings.TrimSpace(os.Getenv("YTDLP_PATH"))
	if binary == "" {
		binary = "yt-dlp"
	}
	return &ytdlpDownloader{
		log:       log.With("service", "Downloader"),
		binary:    binary,
		outputDir: outputDir,
	}, nil
}

type ytdlpInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

func (d *ytdlpDownloader) Download(ctx context.Context, videoURL string) (*DownloadResult, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return nil, err
	}

	outputTemplate := filepath.Join(d.outputDir, videoID+".%(ext)s")
	cmd := exec.CommandContext(ctx, d.binary,
		"--no-warnings",
		"--print-json",
		"-f", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "m4a",
		"-o", outputTemplate,
		videoURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	d.log.Info("Downloading video audio", "video_id", videoID)
	if err := cmd.Run(); err != nil {
		return nil, stepErr(StepErrorDownloadFailed,
			fmt.Errorf("yt-dlp failed: %w; stderr=%s", err, strings.TrimSpace(stderr.String())))
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, stepErr(StepErrorDownloadFailed, fmt.Errorf("parse yt-dlp metadata: %w", err))
	}

	audioPath := ""
	for _, ext := range []string{"m4a", "wav", "webm", "mp3", "opus"} {
		candidate := filepath.Join(d.outputDir, videoID+"."+ext)
		if _, statErr := os.Stat(candidate); statErr == nil {
			audioPath = candidate
			break
		}
	}
	if audioPath == "" {
		return nil, stepErr(StepErrorDownloadFailed, fmt.Errorf("downloaded audio file not found for %s", videoID))
	}

	return &DownloadResult{
		VideoID:   videoID,
		Title:     info.Title,
		Duration:  info.Duration,
		URL:       videoURL,
		AudioPath: audioPath,
	}, nil
}
