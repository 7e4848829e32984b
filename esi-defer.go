package esidefer

import (
	"context"

	blockid "github.com/esi-defer/esi-defer/pkg/block-id"

	"github.com/rs/zerolog"
)

// DefaultBasePath is the path of the fragment endpoint if not configured.
const DefaultBasePath = "/esi/block/"

type Config struct {
	// Renderer resolves lazy block callbacks to fragment markup.
	// Required for serving the fragment endpoint.
	Renderer Renderer
	// Base path of the fragment endpoint as mounted in the host application.
	// Defaults to DefaultBasePath.
	BasePath string
	// Optional secret for signing block ids.
	// When set, the fragment endpoint rejects ids it did not issue itself.
	Secret []byte
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
	// Optional metrics observer.
	Metrics *Metrics
}

// EsiDefer defers the rendering of expensive page placeholders to an ESI
// processing surrogate. It rewrites placeholders into include directives,
// advertises directive use on outgoing responses, and serves the directive
// URLs back as standalone fragments.
type EsiDefer struct {
	renderer Renderer
	keyer    blockid.Keyer
	basePath string
	log      zerolog.Logger
	metrics  *Metrics
}

// Fragment is the rendered output of one lazy block.
type Fragment struct {
	Body []byte
	// Content type of the body. Treated as HTML if empty.
	ContentType string
}

// Renderer dispatches a lazy block callback through the host rendering
// pipeline. Implementations must render root-only: the returned body is the
// fragment's own markup with no enclosing page chrome, head, or theme
// wrapper. Implementations must be safe for concurrent use, as the
// surrogate fetches fragments of a page in parallel.
type Renderer interface {
	RenderBlock(ctx context.Context, callback string, args []any) (Fragment, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(ctx context.Context, callback string, args []any) (Fragment, error)

func (f RendererFunc) RenderBlock(ctx context.Context, callback string, args []any) (Fragment, error) {
	return f(ctx, callback, args)
}

// New initializes an EsiDefer instance.
func New(config Config) *EsiDefer {
	// use console logger if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.New(zerolog.NewConsoleWriter())
	} else {
		logger = *config.Logger
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}

	// create a child logger and add defaults
	logger = logger.With().
		Str("basePath", basePath).
		Logger()

	return &EsiDefer{
		renderer: config.Renderer,
		keyer:    blockid.Keyer{Secret: config.Secret},
		basePath: basePath,
		log:      logger,
		metrics:  config.Metrics,
	}
}
