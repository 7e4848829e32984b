package esidefer

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Handler returns the fragment endpoint, routed at the configured base path.
// Mount it on the host application's router so the directive URLs produced
// by Rewrite resolve back to it.
func (e *EsiDefer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get(e.basePath, e.ServeBlock)
	return r
}

// ServeBlock answers a surrogate's fetch of a single deferred fragment.
// The response body is exactly the block's root-only markup. Hosts with
// their own router can register this directly at the configured base path.
func (e *EsiDefer) ServeBlock(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	callback, args, err := e.keyer.Decode(id)
	if err != nil {
		e.log.Debug().Err(err).Str("id", id).Msg("Rejecting block request")
		e.metrics.blockServed(resultMalformed)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	fragment, err := e.renderer.RenderBlock(r.Context(), callback, args)
	if err != nil {
		e.log.Error().Err(err).Str("callback", callback).Msg("Could not render block")
		e.metrics.blockServed(resultRenderError)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	contentType := fragment.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(fragment.Body); err != nil {
		e.log.Error().Err(err).Msg("Could not write fragment to surrogate")
	}
	e.metrics.blockServed(resultOk)
	e.log.Debug().
		Str("callback", callback).
		Str("sourceIp", getRequestSourceIp(r)).
		Int("bytes", len(fragment.Body)).
		Msg("Served block")
}

func getRequestSourceIp(r *http.Request) string {
	// RemoteAddr is in the format:
	// 1.2.3.4:10000 for ipv4
	// [1:2:3]:10000 for ipv6
	ipAndPort := r.RemoteAddr
	portSepIdx := strings.LastIndex(ipAndPort, ":")
	// if not found, return
	if portSepIdx < 0 {
		return ipAndPort
	}
	return ipAndPort[:portSepIdx]
}
