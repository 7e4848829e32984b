package blockid

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

var ErrorMalformedId = fmt.Errorf("malformed block id")

// The signature separator is never produced by the raw URL base64 alphabet,
// so cutting on it is unambiguous.
const signatureSeparator = "."

// Keyer turns lazy block invocations into opaque identifiers suitable for
// embedding in a URL query string, and turns them back. Encoding is a pure
// function of the callback name and arguments: identical inputs always
// produce the identical id.
type Keyer struct {
	// Optional signing secret. When set, encoded ids carry an HMAC-SHA256
	// signature and Decode rejects ids that do not verify.
	Secret []byte
}

type payload struct {
	Callback string `json:"c"`
	Args     []any  `json:"a"`
}

// Encode returns the id for invoking the named callback with the given
// arguments. Argument order and values are preserved verbatim.
func (k Keyer) Encode(callback string, args []any) (string, error) {
	if callback == "" {
		return "", fmt.Errorf("callback name is empty")
	}
	bytes, err := json.Marshal(payload{Callback: callback, Args: args})
	if err != nil {
		return "", err
	}
	id := base64.RawURLEncoding.EncodeToString(bytes)
	if len(k.Secret) > 0 {
		id = id + signatureSeparator + k.sign(id)
	}
	return id, nil
}

// Decode returns the callback name and arguments encoded into an id.
// It returns ErrorMalformedId if the id cannot be decoded into the expected
// shape, or if a signing secret is set and the signature does not verify.
func (k Keyer) Decode(id string) (string, []any, error) {
	if len(k.Secret) > 0 {
		body, signature, found := strings.Cut(id, signatureSeparator)
		if !found || !hmac.Equal([]byte(signature), []byte(k.sign(body))) {
			return "", nil, ErrorMalformedId
		}
		id = body
	}
	bytes, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrorMalformedId, err)
	}
	var p payload
	if err := json.Unmarshal(bytes, &p); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrorMalformedId, err)
	}
	if p.Callback == "" {
		return "", nil, ErrorMalformedId
	}
	return p.Callback, p.Args, nil
}

func (k Keyer) sign(body string) string {
	mac := hmac.New(sha256.New, k.Secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
