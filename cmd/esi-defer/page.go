package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	esidefer "github.com/esi-defer/esi-defer"

	"github.com/rs/zerolog"
)

// Demo blocks. These stand in for the expensive, uncacheable parts of a
// page; the rest of the page is static and cacheable by the surrogate.
var blocks = map[string]func(args []any) (esidefer.Fragment, error){
	"clock": func(args []any) (esidefer.Fragment, error) {
		return esidefer.Fragment{
			Body: []byte("<time>" + time.Now().Format(time.RFC1123) + "</time>"),
		}, nil
	},
	"greeting": func(args []any) (esidefer.Fragment, error) {
		if len(args) != 1 {
			return esidefer.Fragment{}, fmt.Errorf("greeting needs exactly one argument")
		}
		return esidefer.Fragment{
			Body: []byte(fmt.Sprintf("<p>Hello, %v!</p>", args[0])),
		}, nil
	},
}

func renderBlock(ctx context.Context, callback string, args []any) (esidefer.Fragment, error) {
	block, ok := blocks[callback]
	if !ok {
		return esidefer.Fragment{}, fmt.Errorf("unknown block: %s", callback)
	}
	return block(args)
}

// servePage assembles the demo page. Placeholders rewritten to directives
// are emitted as include tags for the surrogate to resolve; the rest are
// rendered inline as any origin would without a surrogate in front.
func servePage(esi *esidefer.EsiDefer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		descriptors := map[string]esidefer.Descriptor{
			"greeting": {Callback: "greeting", Args: []any{"world"}},
			"clock":    {Callback: "clock"},
			"footer":   {},
		}
		directives := esi.Rewrite(r.Header, descriptors)

		resolve := func(key string) string {
			if directive, ok := directives[key]; ok {
				return directive.Tag()
			}
			descriptor := descriptors[key]
			if descriptor.Callback == "" {
				// not lazy-renderable, always rendered by the origin
				return "<footer>powered by esi-defer</footer>"
			}
			fragment, err := renderBlock(r.Context(), descriptor.Callback, descriptor.Args)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("block", key).Msg("Could not render block inline")
				return "<!-- " + key + " unavailable -->"
			}
			return string(fragment.Body)
		}

		page := strings.Join([]string{
			"<html><body>",
			resolve("greeting"),
			resolve("clock"),
			resolve("footer"),
			"</body></html>",
		}, "\n")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}
}
