package pipeline

import "strings"

// StorageReference identifies one uploaded object.
// RawKey is the key exactly as delivered and is the only key used for storage,
// layout and index calls. DecodedKey is for titles and extension parsing.
type StorageReference struct {
	Bucket     string
	RawKey     string
	DecodedKey string
}

// Resolve builds a StorageReference from an event key. The key is decoded once;
// malformed escape sequences are kept as-is.
func Resolve(bucket, rawKey string) StorageReference {
	return StorageReference{
		Bucket:     bucket,
		RawKey:     rawKey,
		DecodedKey: decodeKey(rawKey),
	}
}

// ResolveLiteral builds a StorageReference from a key that is already the
// object name, as Cloud Storage events deliver it.
func ResolveLiteral(bucket, key string) StorageReference {
	return StorageReference{Bucket: bucket, RawKey: key, DecodedKey: key}
}

// Title is the last path segment of the decoded key.
func (r StorageReference) Title() string {
	if i := strings.LastIndex(r.DecodedKey, "/"); i >= 0 {
		return r.DecodedKey[i+1:]
	}
	return r.DecodedKey
}

// Extension is the lowercased suffix after the last '.' of the title, or "".
func (r StorageReference) Extension() string {
	return extensionOf(r.DecodedKey)
}

func extensionOf(key string) string {
	name := key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// decodeKey follows form-style unescaping ('+' is a space) but, unlike
// url.QueryUnescape, never fails on a bad sequence.
func decodeKey(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
