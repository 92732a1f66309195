package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/lychee-technology/jsonerd"
	"go.uber.org/zap"
)

// DefaultShareQueryParam is the query parameter that carries a share token.
const DefaultShareQueryParam = "data"

// ShareCodec turns a ShareState into a token: compact JSON, percent-escaped
// like encodeURIComponent, then standard base64. Decoding reverses the steps
// and tolerates the usual damage a token picks up in a URL.
type ShareCodec struct {
	queryParam string
}

// NewShareCodec creates a codec that reads and writes tokens under queryParam.
func NewShareCodec(queryParam string) *ShareCodec {
	if queryParam == "" {
		queryParam = DefaultShareQueryParam
	}
	return &ShareCodec{queryParam: queryParam}
}

var _ jsonerd.ShareCodec = (*ShareCodec)(nil)

// Encode implements jsonerd.ShareCodec.
func (c *ShareCodec) Encode(state jsonerd.ShareState) (string, error) {
	payload := jsonerd.NewObject().
		Set("json", state.JSON).
		Set("collection", jsonerd.String(state.Collection))

	text, err := jsonerd.ObjectValue(payload).MarshalJSON()
	if err != nil {
		return "", encodeFailed("serialize share state", err)
	}

	escaped, err := encodeURIComponent(string(text))
	if err != nil {
		return "", encodeFailed("escape share state", err)
	}

	return base64.StdEncoding.EncodeToString([]byte(escaped)), nil
}

// Decode implements jsonerd.ShareCodec.
func (c *ShareCodec) Decode(token string) (jsonerd.ShareState, error) {
	raw, err := decodeBase64(token)
	if err != nil {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeTokenDecodeFailed, "token is not valid base64", err)
	}

	text, err := decodeURIComponent(string(raw))
	if err != nil {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeTokenDecodeFailed, "token is not valid percent-encoded text", err)
	}

	payload, err := jsonerd.ParseValue([]byte(text))
	if err != nil {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeTokenDecodeFailed, "token does not contain valid JSON", err)
	}

	obj := payload.Object()
	if obj == nil {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeInvalidSharePayload, "share payload must be an object", nil)
	}

	doc, ok := obj.Get("json")
	if !ok {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeInvalidSharePayload, "share payload has no json member", nil)
	}

	state := jsonerd.ShareState{JSON: doc}
	if name, ok := obj.Get("collection"); ok {
		switch name.Kind() {
		case jsonerd.KindString:
			state.Collection = name.Text()
		case jsonerd.KindNull:
		default:
			return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeInvalidSharePayload, "share payload collection must be a string", nil)
		}
	}

	return state, nil
}

// ShareURL implements jsonerd.ShareCodec. Any existing value of the token
// parameter in baseURL is replaced.
func (c *ShareCodec) ShareURL(baseURL string, state jsonerd.ShareState) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", encodeFailed("parse base url", err)
	}

	token, err := c.Encode(state)
	if err != nil {
		return "", err
	}

	query := u.Query()
	query.Set(c.queryParam, token)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// StateFromURL implements jsonerd.ShareCodec.
func (c *ShareCodec) StateFromURL(rawURL string) (jsonerd.ShareState, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeInvalidShareURL, "share url cannot be parsed", err)
	}

	token := u.Query().Get(c.queryParam)
	if token == "" {
		return jsonerd.ShareState{}, decodeFailed(jsonerd.ErrCodeInvalidShareURL, fmt.Sprintf("share url has no %q parameter", c.queryParam), nil)
	}

	return c.Decode(token)
}

func encodeFailed(message string, cause error) error {
	zap.S().Warnw("failed to encode share token", "reason", message, "err", cause)
	return jsonerd.NewCodecError(jsonerd.ErrCodeTokenEncodeFailed, message, cause)
}

func decodeFailed(code, message string, cause error) error {
	zap.S().Warnw("failed to decode share token", "reason", message, "err", cause)
	return jsonerd.NewCodecError(code, message, cause)
}

// uriUnreserved marks the ASCII characters encodeURIComponent leaves alone.
var uriUnreserved = func() [128]bool {
	var table [128]bool
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		table[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for _, c := range "-_.!~*'()" {
		table[c] = true
	}
	return table
}()

func encodeURIComponent(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", errors.New("text is not valid UTF-8")
	}

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < utf8.RuneSelf && uriUnreserved[c] {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String(), nil
}

func decodeURIComponent(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errors.New("decoded text is not valid UTF-8")
	}
	return out, nil
}

// decodeBase64 follows atob: ASCII whitespace is skipped and padding is
// optional. Spaces are read as '+' first, since query decoding turns an
// unescaped '+' into a space.
func decodeBase64(token string) ([]byte, error) {
	var b strings.Builder
	b.Grow(len(token))
	for i := 0; i < len(token); i++ {
		switch c := token[i]; c {
		case ' ':
			b.WriteByte('+')
		case '\t', '\n', '\f', '\r':
		default:
			b.WriteByte(c)
		}
	}

	s := b.String()
	if len(s)%4 == 0 {
		s = strings.TrimSuffix(s, "=")
		s = strings.TrimSuffix(s, "=")
	}
	if len(s)%4 == 1 {
		return nil, errors.New("invalid token length")
	}
	if strings.ContainsRune(s, '=') {
		return nil, errors.New("misplaced padding")
	}

	return base64.RawStdEncoding.DecodeString(s)
}
