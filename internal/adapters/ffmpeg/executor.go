// Package ffmpeg implements ports.VideoTranscoder by running the ffmpeg and
// ffprobe executables.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// DefaultQScale is the MPEG-4 Part 2 quantizer used for resized videos.
const DefaultQScale = 3

// Config locates the executables and sets encoder quality.
type Config struct {
	FFmpeg  string
	FFprobe string

	// QScale is the mpeg4 -q:v value, 1 (best) to 31.
	QScale int
}

// Executor runs ffmpeg/ffprobe.
type Executor struct {
	cfg    Config
	logger ports.Logger
}

// New creates an Executor, filling unset fields with defaults.
func New(cfg Config, logger ports.Logger) *Executor {
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.FFprobe == "" {
		cfg.FFprobe = "ffprobe"
	}
	if cfg.QScale < 1 || cfg.QScale > 31 {
		cfg.QScale = DefaultQScale
	}
	logger = log.OrNoop(logger)
	return &Executor{cfg: cfg, logger: logger}
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}

// Probe reads the first video stream's size, frame rate and frame count.
func (e *Executor) Probe(ctx context.Context, path string) (domain.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, e.cfg.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,avg_frame_rate,r_frame_rate,nb_frames",
		"-of", "json",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return domain.VideoInfo{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseProbe(out)
}

func parseProbe(data []byte) (domain.VideoInfo, error) {
	var po probeOutput
	if err := json.Unmarshal(data, &po); err != nil {
		return domain.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(po.Streams) == 0 {
		return domain.VideoInfo{}, fmt.Errorf("no video stream")
	}
	s := po.Streams[0]
	info := domain.VideoInfo{Width: s.Width, Height: s.Height}
	info.FPS = parseRate(s.AvgFrameRate)
	if info.FPS == 0 {
		info.FPS = parseRate(s.RFrameRate)
	}
	if n, err := strconv.ParseInt(s.NbFrames, 10, 64); err == nil {
		info.Frames = n
	}
	return info, nil
}

// parseRate parses "30000/1001" or "25" style rates; invalid input is 0.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Transcode resizes src into dst with a bilinear scale and MPEG-4 Part 2
// video ("mp4v"). Audio is dropped.
func (e *Executor) Transcode(ctx context.Context, src, dst string, to domain.Resolution, onFrame func(int64)) error {
	cmd := exec.CommandContext(ctx, e.cfg.FFmpeg, e.transcodeArgs(src, dst, to)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	scanProgress(stdout, onFrame)

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w: %s", src, err, lastLines(stderr.String(), 5))
	}
	return nil
}

func (e *Executor) transcodeArgs(src, dst string, to domain.Resolution) []string {
	return []string{
		"-hide_banner", "-nostdin", "-y",
		"-loglevel", "error",
		"-i", src,
		"-vf", fmt.Sprintf("scale=%d:%d:flags=bilinear", to.Width, to.Height),
		"-c:v", "mpeg4",
		"-tag:v", "mp4v",
		"-q:v", strconv.Itoa(e.cfg.QScale),
		"-an",
		"-f", "mp4",
		"-progress", "pipe:1",
		"-nostats",
		dst,
	}
}

// scanProgress reads ffmpeg -progress key=value lines and reports frame=N.
func scanProgress(r io.Reader, onFrame func(int64)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok || key != "frame" || onFrame == nil {
			continue
		}
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			onFrame(n)
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}
