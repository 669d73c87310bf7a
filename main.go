package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"photo-share/internal/collection"
	"photo-share/internal/docstore"
	"photo-share/internal/geocode"
	"photo-share/internal/handlers"
	"photo-share/internal/ingest"
	"photo-share/internal/logging"
	"photo-share/internal/media"
	"photo-share/internal/memory"
	"photo-share/internal/metrics"
	"photo-share/internal/middleware"
	"photo-share/internal/startup"
	"photo-share/internal/transcoder"
)

// staleLockReport is the marker age reported as stale when automatic breaking is off.
const staleLockReport = 10 * time.Minute

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Metrics
	metrics.Register()
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// Storage
	store := docstore.New(config.DataDir, config.Lock)
	albums := collection.NewManager(store)
	albums.OnChange(func(c collection.Change) {
		logging.Debug("Album %s: %s %s", c.AlbumKey, c.Type, c.Record.File)
	})

	// Media processing
	useVips := false
	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using the pure Go thumbnailer: %v", err)
		} else {
			useVips = true
		}
	}
	startup.LogToolsInit(config.FFmpegPath, config.FFprobePath)

	places, diskCache, geocodeDesc := buildResolver(config)

	dirs := media.DirsFor(store)
	thumbs := media.NewThumbnailer(config.ThumbnailSize, config.JPEGQuality, useVips)
	heic := media.NewHEICConverter(config.HEICConverter, config.JPEGQuality, config.ToolTimeout)
	tools := transcoder.New(transcoder.Config{
		FFmpegPath:   config.FFmpegPath,
		FFprobePath:  config.FFprobePath,
		ToolTimeout:  config.ToolTimeout,
		ProbeTimeout: config.ProbeTimeout,
		Workers:      config.TranscodeWorkers,
	})
	images := media.NewImageProcessor(dirs, thumbs, heic, places)
	videos := media.NewVideoProcessor(dirs, thumbs, tools, places)
	startup.LogProcessorsInit(thumbs, geocodeDesc)

	orch := ingest.New(albums, dirs.Tmp, images, videos)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	orch.SetGate(monitor)

	// Library gauges
	staleAfter := config.Lock.StaleAfter
	if staleAfter <= 0 {
		staleAfter = staleLockReport
	}
	collector := metrics.NewCollector(config.DataDir, staleAfter, config.MetricsInterval)
	collector.Start()

	// Initialize handlers
	h := handlers.New(albums, orch, monitor, config)

	// Setup router
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	router.Use(middleware.Logger(loggingConfig))

	// Create server
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsMux.HandleFunc("/health", h.LivenessCheck)
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, collector, monitor, tools, diskCache, useVips)
		close(done)
	}()

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

// buildResolver assembles the reverse geocoder: the HTTP client behind the LRU and SQLite
// caches, optionally downgrading failures to the placeholder location.
func buildResolver(config *startup.Config) (geocode.Resolver, *geocode.DiskCache, string) {
	if !config.GeocodeEnabled {
		return geocode.ResolverFunc(func(context.Context, float64, float64) (string, error) {
			return geocode.Placeholder, nil
		}), nil, "disabled (placeholder location)"
	}

	client := geocode.NewClient(geocode.ClientConfig{
		BaseURL:       config.GeocodeURL,
		UserAgent:     config.GeocodeUserAgent,
		Timeout:       config.GeocodeTimeout,
		RatePerSecond: config.GeocodeRate,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	disk, err := geocode.OpenDiskCache(ctx, config.GeocodeCachePath, config.GeocodeCacheTTL)
	if err != nil {
		logging.Warn("Geocode disk cache unavailable, using memory only: %v", err)
		disk = nil
	} else if pruned, err := disk.Prune(ctx); err != nil {
		logging.Warn("Failed to prune geocode cache: %v", err)
	} else if pruned > 0 {
		logging.Info("Pruned %d expired geocode cache entries", pruned)
	}

	var resolver geocode.Resolver = geocode.NewCached(client, config.GeocodeCacheSize, config.GeocodeCacheTTL, disk)
	desc := fmt.Sprintf("%s (cache %d entries, %v)", config.GeocodeURL, config.GeocodeCacheSize, config.GeocodeCacheTTL)
	if config.GeocodeFailurePlaceholder {
		resolver = geocode.Lenient{Next: resolver}
		desc += ", failures use the placeholder"
	}
	return resolver, disk, desc
}

func handleShutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor,
	tools *transcoder.Transcoder, disk *geocode.DiskCache, useVips bool) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Cleaning up transcoder")
	tools.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	monitor.Stop()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if disk != nil {
		if err := disk.Close(); err != nil {
			logging.Warn("Failed to close geocode cache: %v", err)
		} else {
			startup.LogShutdownStepComplete("Geocode cache closed")
		}
	}

	if useVips {
		media.ShutdownVips()
		startup.LogShutdownStepComplete("libvips shut down")
	}

	startup.LogShutdownComplete()
}
