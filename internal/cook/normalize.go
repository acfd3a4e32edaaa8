package cook

import (
	"bytes"

	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeText strips a UTF-8 byte order mark, converts CRLF and CR line
// endings to LF, applies Unicode NFC composition, and ensures a trailing
// newline on non-empty input.
func NormalizeText(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
	data = norm.NFC.Bytes(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data
}
