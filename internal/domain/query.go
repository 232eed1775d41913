package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// BarcodeParam is the query parameter carrying the barcode.
const BarcodeParam = "barcode"

// BarcodeFromQuery returns the barcode from a raw query string.
// See QueryValue for the decoding rules.
func BarcodeFromQuery(rawQuery string) string {
	return QueryValue(rawQuery, BarcodeParam)
}

// QueryValue returns the first value of key in rawQuery, or "" when absent.
//
// Unlike url.ParseQuery it never drops a pair: pairs are split on '&' only,
// '+' decodes to a space, and malformed percent escapes are kept as literal
// text, so "barcode=12%" yields "12%".
func QueryValue(rawQuery, key string) string {
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		if unescapeLenient(k) == key {
			return unescapeLenient(v)
		}
	}
	return ""
}

func unescapeLenient(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s):
			if n, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				b.WriteByte(byte(n))
				i += 2
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
