package esidefer

import (
	"net/http"

	"github.com/esi-defer/esi-defer/pkg/surrogate"
)

// Middleware annotates every response to a capability-bearing request with
// the Surrogate-Control advertisement, whether or not the particular
// response ends up carrying directives. A directive-free body costs the
// surrogate a no-op scan, which is an accepted tradeoff.
//
// Mount it outermost, so the header is asserted after all other header
// mutation. A handler that sets its own Surrogate-Control value before
// writing wins over the advertisement.
func (e *EsiDefer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !surrogate.HasCapability(r.Header) {
			next.ServeHTTP(w, r)
			return
		}
		e.metrics.responseAnnotated()
		w.Header().Set(surrogate.ControlField, surrogate.Advertisement())
		next.ServeHTTP(&annotatingWriter{rw: w}, r)
	})
}

// annotatingWriter is a wrapper around http.ResponseWriter that re-asserts
// the advertisement header just before the headers are flushed.
type annotatingWriter struct {
	rw           http.ResponseWriter
	wroteHeaders bool
}

// Implementation of http.ResponseWriter
func (a *annotatingWriter) Header() http.Header {
	return a.rw.Header()
}

// Implementation of http.ResponseWriter
func (a *annotatingWriter) WriteHeader(statusCode int) {
	if !a.wroteHeaders {
		a.wroteHeaders = true
		if a.rw.Header().Get(surrogate.ControlField) == "" {
			a.rw.Header().Set(surrogate.ControlField, surrogate.Advertisement())
		}
	}
	a.rw.WriteHeader(statusCode)
}

// Implementation of http.ResponseWriter
func (a *annotatingWriter) Write(b []byte) (int, error) {
	// write headers if not already written
	if !a.wroteHeaders {
		a.WriteHeader(http.StatusOK)
	}
	return a.rw.Write(b)
}
