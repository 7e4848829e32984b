package esidefer

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/esi-defer/esi-defer/pkg/surrogate"
)

// Descriptor describes one placeholder produced by the host rendering
// pipeline. Callback names the lazy-renderable unit that reproduces the
// placeholder's content; descriptors without a callback are not eligible
// for deferral and are left to the host's default handling.
type Descriptor struct {
	Callback string
	Args     []any
}

// Directive is the include instruction standing in for a rewritten
// placeholder. It is rendered literally into the page markup and consumed
// by the surrogate's ESI parser.
type Directive struct {
	URL string
}

// Tag returns the include markup for the directive.
func (d Directive) Tag() string {
	return fmt.Sprintf(`<esi:include src="%s" />`, d.URL)
}

// Rewrite decides per placeholder whether to defer its rendering to the
// surrogate. Without a capable surrogate it returns an empty map. Otherwise
// every descriptor carrying a callback is rewritten to a directive pointing
// at the fragment endpoint. The result contains only the rewritten keys;
// callers must fall back to their default resolution for keys absent from
// it.
func (e *EsiDefer) Rewrite(header http.Header, descriptors map[string]Descriptor) map[string]Directive {
	directives := make(map[string]Directive)
	if !surrogate.HasCapability(header) {
		return directives
	}
	for key, descriptor := range descriptors {
		if descriptor.Callback == "" {
			continue
		}
		id, err := e.keyer.Encode(descriptor.Callback, descriptor.Args)
		if err != nil {
			e.log.Error().Err(err).Str("callback", descriptor.Callback).Msg("Could not encode block id")
			continue
		}
		directives[key] = Directive{
			URL: e.basePath + "?id=" + url.QueryEscape(id),
		}
		e.metrics.placeholderRewritten()
	}
	e.log.Trace().Msgf("Rewrote %v of %v placeholders", len(directives), len(descriptors))
	return directives
}
