package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	esidefer "github.com/esi-defer/esi-defer"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	basePathFlag       string
	secretFlag         string
	metricsFlag        bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&basePathFlag, "base-path", "", "Base path of the fragment endpoint (overrides config)")
	flag.StringVar(&secretFlag, "secret", "", "Secret for signing block ids (overrides config)")
	flag.BoolVar(&metricsFlag, "metrics", false, "Expose Prometheus metrics on /metrics")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	var config Config
	if configFilenameFlag != "" {
		var err error
		config, err = getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
	}
	if config.Port <= 0 {
		config.Port = portFlag
	}
	if basePathFlag != "" {
		config.BasePath = basePathFlag
	}
	if secretFlag != "" {
		config.Secret = secretFlag
	}
	if metricsFlag {
		config.Metrics = true
	}

	deferConfig := esidefer.Config{
		Renderer: esidefer.RendererFunc(renderBlock),
		BasePath: config.BasePath,
		Logger:   &log.Logger,
	}
	if config.Secret != "" {
		deferConfig.Secret = []byte(config.Secret)
	}

	registry := prometheus.NewRegistry()
	if config.Metrics {
		deferConfig.Metrics = esidefer.NewMetrics(registry)
	}

	esi := esidefer.New(deferConfig)

	basePath := config.BasePath
	if basePath == "" {
		basePath = esidefer.DefaultBasePath
	}

	r := chi.NewRouter()
	r.Use(requestId)
	r.Use(esi.Middleware)
	r.Get(basePath, esi.ServeBlock)
	r.Get("/", servePage(esi))
	if config.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	log.Info().Msgf("Serving demo origin on port %v (fragment endpoint at %s)", config.Port, basePath)
	err := http.ListenAndServe(fmt.Sprintf(":%d", config.Port), r)

	if err != nil {
		panic(err)
	}
}

// requestId attaches an id to the request for logging and tracing,
// honoring an id already set by an upstream proxy.
func requestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		logger := log.With().Str("requestId", id).Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
