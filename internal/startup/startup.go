package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/geocode"
	"photo-share/internal/logging"
	"photo-share/internal/media"
	"photo-share/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// transcodeWorkersEnv overrides the number of concurrent transcodes.
const transcodeWorkersEnv = "TRANSCODE_WORKERS"

// Config holds all application configuration
type Config struct {
	DataDir         string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogStaticFiles  bool
	LogHealthChecks bool
	MaxUploadBytes  int64

	Lock filesystem.LockConfig

	ThumbnailSize int
	JPEGQuality   int
	VipsEnabled   bool
	HEICConverter string

	FFmpegPath       string
	FFprobePath      string
	ToolTimeout      time.Duration
	ProbeTimeout     time.Duration
	TranscodeWorkers int

	GeocodeEnabled            bool
	GeocodeURL                string
	GeocodeUserAgent          string
	GeocodeTimeout            time.Duration
	GeocodeRate               float64
	GeocodeCacheSize          int
	GeocodeCacheTTL           time.Duration
	GeocodeCachePath          string
	GeocodeFailurePlaceholder bool
}

// LoadConfig loads and validates configuration from the environment. A .env file in the
// working directory is read first; variables already set in the environment win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to load .env: %v", err)
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg := &Config{
		DataDir:         getEnv("DATA_DIR", "/data"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		MetricsInterval: getEnvDuration("METRICS_INTERVAL", time.Minute),
		LogStaticFiles:  getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", false),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 512<<20)),

		Lock: filesystem.LockConfig{
			MaxRetries:    getEnvInt("LOCK_MAX_RETRIES", 8),
			InitialDelay:  getEnvDuration("LOCK_INITIAL_DELAY", 10*time.Millisecond),
			BackoffFactor: getEnvFloat("LOCK_BACKOFF_FACTOR", 2),
			MaxDelay:      getEnvDuration("LOCK_MAX_DELAY", time.Second),
			StaleAfter:    getEnvDuration("LOCK_STALE_AFTER", 0),
		},

		ThumbnailSize: getEnvInt("THUMBNAIL_SIZE", media.DefaultThumbnailSize),
		JPEGQuality:   getEnvInt("JPEG_QUALITY", 85),
		VipsEnabled:   getEnvBool("VIPS_ENABLED", false),
		HEICConverter: getEnv("HEIC_CONVERTER", ""),

		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
		ToolTimeout:      getEnvDuration("TOOL_TIMEOUT", 5*time.Minute),
		ProbeTimeout:     getEnvDuration("PROBE_TIMEOUT", 30*time.Second),
		TranscodeWorkers: workers.ForCPU(transcodeWorkersEnv, 4),

		GeocodeEnabled:            getEnvBool("GEOCODE_ENABLED", true),
		GeocodeURL:                getEnv("GEOCODE_URL", geocode.DefaultURL),
		GeocodeUserAgent:          getEnv("GEOCODE_USER_AGENT", "photo-share/"+Version),
		GeocodeTimeout:            getEnvDuration("GEOCODE_TIMEOUT", 10*time.Second),
		GeocodeRate:               getEnvFloat("GEOCODE_RATE", 1),
		GeocodeCacheSize:          getEnvInt("GEOCODE_CACHE_SIZE", 4096),
		GeocodeCacheTTL:           getEnvDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		GeocodeFailurePlaceholder: getEnvBool("GEOCODE_FAILURE_PLACEHOLDER", false),
	}

	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		logging.Warn("  Invalid JPEG_QUALITY %d, using default: 85", cfg.JPEGQuality)
		cfg.JPEGQuality = 85
	}
	if cfg.ThumbnailSize < 16 {
		logging.Warn("  Invalid THUMBNAIL_SIZE %d, using default: %d", cfg.ThumbnailSize, media.DefaultThumbnailSize)
		cfg.ThumbnailSize = media.DefaultThumbnailSize
	}

	logging.Info("  DATA_DIR:            %s", cfg.DataDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  MAX_UPLOAD_BYTES:    %d", cfg.MaxUploadBytes)
	logging.Info("  LOCK:                %d retries, %v initial, x%.1f, %v max, stale after %v",
		cfg.Lock.MaxRetries, cfg.Lock.InitialDelay, cfg.Lock.BackoffFactor, cfg.Lock.MaxDelay, cfg.Lock.StaleAfter)
	logging.Info("  THUMBNAIL_SIZE:      %d", cfg.ThumbnailSize)
	logging.Info("  JPEG_QUALITY:        %d", cfg.JPEGQuality)
	logging.Info("  VIPS_ENABLED:        %v", cfg.VipsEnabled)
	logging.Info("  HEIC_CONVERTER:      %s", orDefault(cfg.HEICConverter, "(built in)"))
	logging.Info("  TOOL_TIMEOUT:        %v", cfg.ToolTimeout)
	logging.Info("  TRANSCODE_WORKERS:   %d", cfg.TranscodeWorkers)
	logging.Info("  GEOCODE_ENABLED:     %v", cfg.GeocodeEnabled)
	logging.Info("  GEOCODE_URL:         %s", cfg.GeocodeURL)
	logging.Info("  GEOCODE_RATE:        %.2f/s", cfg.GeocodeRate)
	logging.Info("  GEOCODE_FAILURE_PLACEHOLDER: %v", cfg.GeocodeFailurePlaceholder)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.GeocodeCachePath = filepath.Join(dataDir, "geocode.db")
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	for _, sub := range []string{docstore.AdminDir, docstore.AlbumsDir, docstore.ImagesDir,
		docstore.ThumbsDir, docstore.OriginalsDir, docstore.TmpDir} {
		if err := ensureDirectory(filepath.Join(dataDir, sub), sub); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", sub, err)
		}
	}
	if err := testWriteAccess(filepath.Join(dataDir, docstore.AlbumsDir)); err != nil {
		return nil, fmt.Errorf("albums directory is not writable: %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	return cfg, nil
}

// LogToolsInit checks the external video tools. A missing tool is a warning: images still
// work, video uploads will fail with a codec tool error.
func LogToolsInit(ffmpegPath, ffprobePath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TOOLS")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{ffmpegPath, ffprobePath} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			logging.Warn("  Video uploads will fail until it is installed")
		} else {
			logging.Info("  [OK] %s is available", tool)
		}
	}
}

// LogProcessorsInit logs the media processing setup
func LogProcessorsInit(images fmt.Stringer, geocodeDesc string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA PROCESSING")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Images:   %s", images)
	logging.Info("  Geocode:  %s", geocodeDesc)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes at debug level
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
          __          __                   __
    ____ / /_  ____  / /_____        _____/ /_  ____ _________
   / __ \/ __ \/ __ \/ __/ __ \______/ ___/ __ \/ __ '/ ___/ _ \
  / /_/ / / / / /_/ / /_/ /_/ /_____(__  ) / / / /_/ / /  /  __/
 / .___/_/ /_/\____/\__/\____/     /____/_/ /_/\__,_/_/   \___/
/_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(line))
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
