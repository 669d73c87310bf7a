package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"
)

// Runner runs an external tool and returns its standard output. A non-nil error means the
// tool failed; it should include the tool's standard error.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Config configures the external video tools.
type Config struct {
	FFmpegPath   string
	FFprobePath  string
	ToolTimeout  time.Duration
	ProbeTimeout time.Duration
	// Workers bounds concurrent transcodes. Probing and frame capture are not bounded.
	Workers int
}

// Transcoder wraps ffprobe and ffmpeg.
type Transcoder struct {
	cfg       Config
	run       Runner
	sem       *semaphore.Weighted
	processes map[int]*exec.Cmd
	processMu sync.Mutex
}

// Observer records transcoder metrics.
type Observer interface {
	ObserveProbe(seconds float64)
	ObserveTranscodeStart()
	ObserveTranscodeEnd(status string, seconds float64)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

// New creates a Transcoder that runs the real tools.
func New(cfg Config) *Transcoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 5 * time.Minute
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	t := &Transcoder{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		processes: make(map[int]*exec.Cmd),
	}
	t.run = t.execRun
	return t
}

// SetRunner replaces the tool runner. Used by tests.
func (t *Transcoder) SetRunner(r Runner) {
	t.run = r
}

func (t *Transcoder) execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	t.processMu.Lock()
	t.processes[pid] = cmd
	t.processMu.Unlock()
	defer func() {
		t.processMu.Lock()
		delete(t.processes, pid)
		t.processMu.Unlock()
	}()

	if err := cmd.Wait(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s error: %w - %s", name, err, lastLines(stderr.String(), 5))
	}
	return stdout.Bytes(), nil
}

// toolError maps a tool failure, timeouts included, to CodecToolError.
func toolError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return apperr.E(apperr.CodecToolError, op, fmt.Errorf("%w: %v", ctx.Err(), err))
	}
	return apperr.E(apperr.CodecToolError, op, err)
}

// Transcode converts src to an H.264/AAC MP4 at dst. At most Config.Workers transcodes run at
// once; callers beyond that wait.
func (t *Transcoder) Transcode(ctx context.Context, src, dst string) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return toolError(ctx, "transcode", err)
	}
	defer t.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, t.cfg.ToolTimeout)
	defer cancel()

	if o := observe(); o != nil {
		o.ObserveTranscodeStart()
	}
	start := time.Now()

	_, err := t.run(ctx, t.cfg.FFmpegPath,
		"-hide_banner", "-nostdin", "-y",
		"-i", src,
		"-map", "0:v:0", "-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-f", "mp4",
		dst,
	)

	status := "success"
	if err != nil {
		status = "error"
	}
	if o := observe(); o != nil {
		o.ObserveTranscodeEnd(status, time.Since(start).Seconds())
	}
	if err != nil {
		return toolError(ctx, "transcode", err)
	}
	logging.Info("Transcoded %s in %v", src, time.Since(start).Round(time.Millisecond))
	return nil
}

// CaptureFrame writes the frame at the given offset in seconds to dst as a JPEG.
func (t *Transcoder) CaptureFrame(ctx context.Context, src, dst string, at float64) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.ToolTimeout)
	defer cancel()

	_, err := t.run(ctx, t.cfg.FFmpegPath,
		"-hide_banner", "-nostdin", "-y",
		"-ss", strconv.FormatFloat(at, 'f', 3, 64),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		dst,
	)
	if err != nil {
		return toolError(ctx, "capture frame", err)
	}
	return nil
}

// Cleanup kills all running tool processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for pid, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing %s process %d", cmd.Path, pid)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill process %d: %v", pid, err)
			}
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
