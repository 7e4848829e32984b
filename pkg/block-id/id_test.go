package blockid

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	keyer := Keyer{}
	args := []any{"x", float64(1), true, map[string]any{"uuid": "abc-123"}}
	id, err := keyer.Encode("blockA", args)
	if err != nil {
		t.Fatal(err)
	}
	callback, decoded, err := keyer.Decode(id)
	if err != nil {
		t.Fatalf("%s: %s", id, err)
	}
	if callback != "blockA" {
		t.Fatalf("Callback is %s", callback)
	}
	if !reflect.DeepEqual(decoded, args) {
		t.Fatalf("Arguments are %v", decoded)
	}
}

func TestRoundTripNoArguments(t *testing.T) {
	keyer := Keyer{}
	id, err := keyer.Encode("clock", nil)
	if err != nil {
		t.Fatal(err)
	}
	callback, args, err := keyer.Decode(id)
	if err != nil || callback != "clock" || args != nil {
		t.Fatalf("Decoded %s %v %v", callback, args, err)
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	keyer := Keyer{Secret: []byte("s3cret")}
	args := []any{"x", map[string]any{"b": "2", "a": "1"}}
	first, err := keyer.Encode("blockA", args)
	if err != nil {
		t.Fatal(err)
	}
	second, err := keyer.Encode("blockA", args)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("Ids differ: %s vs %s", first, second)
	}
}

func TestEncodePreservesVerbatimValues(t *testing.T) {
	keyer := Keyer{}
	args := []any{"  Spaced Out\t", "MiXeD cAsE"}
	id, _ := keyer.Encode("blockA", args)
	_, decoded, err := keyer.Decode(id)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, args) {
		t.Fatalf("Arguments are %q", decoded)
	}
}

func TestIdIsQuerySafe(t *testing.T) {
	keyer := Keyer{Secret: []byte("s3cret")}
	id, err := keyer.Encode("blockA", []any{"a&b=c?d #e/f+g"})
	if err != nil {
		t.Fatal(err)
	}
	if escaped := url.QueryEscape(id); escaped != id {
		t.Fatalf("Id needs escaping: %s vs %s", id, escaped)
	}
}

func TestDecodeMalformed(t *testing.T) {
	keyer := Keyer{}
	for _, id := range []string{
		"not-a-valid-id",
		"",
		"e30", // valid base64, no callback
		"%%%",
	} {
		if _, _, err := keyer.Decode(id); !errors.Is(err, ErrorMalformedId) {
			t.Fatalf("Decoding %q: %v", id, err)
		}
	}
}

func TestSignedDecodeRejectsTampering(t *testing.T) {
	keyer := Keyer{Secret: []byte("s3cret")}
	id, err := keyer.Encode("blockA", []any{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := keyer.Decode(id); err != nil {
		t.Fatalf("Genuine id rejected: %s", err)
	}

	unsigned := Keyer{}
	forged, _ := unsigned.Encode("adminBlock", []any{"x"})
	if _, _, err := keyer.Decode(forged); !errors.Is(err, ErrorMalformedId) {
		t.Fatalf("Unsigned id accepted: %v", err)
	}

	body, _, _ := strings.Cut(id, signatureSeparator)
	tampered := body + signatureSeparator + "bogus"
	if _, _, err := keyer.Decode(tampered); !errors.Is(err, ErrorMalformedId) {
		t.Fatalf("Tampered id accepted: %v", err)
	}
}
