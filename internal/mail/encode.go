package mail

import (
	"encoding/base64"
	"strings"
)

// maxEncodedWordBytes is the number of raw UTF-8 bytes packed into one
// RFC 2047 encoded word. 42 = 3*14 keeps every word at 68 columns
// (12 wrapper characters plus 56 base64 characters), under the 76-column
// header line limit.
const maxEncodedWordBytes = 42

// EncodeSubject renders s as RFC 2047 base64 encoded words, folded with
// CRLF+space between words. Chunk boundaries are pure byte cuts and may
// fall inside a multibyte character; this is legal because a decoder
// concatenates all words' decoded bytes before interpreting the result
// as UTF-8. Empty input yields an empty string.
func EncodeSubject(s string) string {
	b := []byte(s)
	words := make([]string, 0, (len(b)+maxEncodedWordBytes-1)/maxEncodedWordBytes)
	for len(b) > 0 {
		n := maxEncodedWordBytes
		if len(b) < n {
			n = len(b)
		}
		words = append(words, "=?UTF-8?B?"+base64.StdEncoding.EncodeToString(b[:n])+"?=")
		b = b[n:]
	}
	return strings.Join(words, "\r\n ")
}
