package surrogate

import (
	"net/http"
	"strings"
)

const (
	// CapabilityField is the request header a surrogate uses to announce
	// what it can do, e.g. `Surrogate-Capability: key="ESI/1.0"`.
	CapabilityField = "Surrogate-Capability"
	// ControlField is the response header the origin uses to tell the
	// surrogate how to process the response.
	ControlField = "Surrogate-Control"

	protocolToken = "ESI/1.0"
)

// HasCapability reports whether the request came through a surrogate that
// processes ESI/1.0 directives. Matching is token presence only, not full
// structured parsing: surrogates send values like `key="ESI/1.0"`, and any
// capability value containing the token counts.
func HasCapability(header http.Header) bool {
	return strings.Contains(header.Get(CapabilityField), protocolToken)
}

// Advertisement returns the Surrogate-Control value signalling that the
// response body may contain ESI directives.
func Advertisement() string {
	return `content="ESI/1.0"`
}
