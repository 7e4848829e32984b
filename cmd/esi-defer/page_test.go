package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	esidefer "github.com/esi-defer/esi-defer"

	"github.com/rs/zerolog"
)

func TestPageFallsBackWithoutSurrogate(t *testing.T) {
	logger := zerolog.Nop()
	esi := esidefer.New(esidefer.Config{
		Renderer: esidefer.RendererFunc(renderBlock),
		Logger:   &logger,
	})
	rr := httptest.NewRecorder()

	servePage(esi).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	body := rr.Body.String()
	if !strings.Contains(body, "Hello, world!") {
		t.Fatalf("Body is %s", body)
	}
	if strings.Contains(body, "<esi:include") {
		t.Fatalf("Directive emitted without a surrogate: %s", body)
	}
}

func TestPageEmitsDirectivesForSurrogate(t *testing.T) {
	logger := zerolog.Nop()
	esi := esidefer.New(esidefer.Config{
		Renderer: esidefer.RendererFunc(renderBlock),
		Logger:   &logger,
	})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Surrogate-Capability", `key="ESI/1.0"`)
	rr := httptest.NewRecorder()

	servePage(esi).ServeHTTP(rr, req)

	body := rr.Body.String()
	if count := strings.Count(body, "<esi:include"); count != 2 {
		t.Fatalf("Body has %d directives: %s", count, body)
	}
	// the static footer is never deferred
	if !strings.Contains(body, "<footer>") {
		t.Fatalf("Body is %s", body)
	}
}
