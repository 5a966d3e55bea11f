package extractor

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Raw content-stream decoding, used when the PDF library's own text methods
// come back empty. Some issuers' renderers emit CIDFont/Type0 fonts whose
// glyph codes the library cannot map; their ToUnicode CMap streams still
// carry the code-to-rune table, so the text can be recovered by scanning the
// byte stream directly: collect the CMaps, find the content streams, decode
// the Tj/TJ string operands through the merged table.

// extractRawText recovers text straight from the document bytes without the
// PDF library. Returns "" when nothing decodable is found.
func extractRawText(data []byte) string {
	streams := contentStreams(data)
	if len(streams) == 0 {
		return ""
	}

	table := collectToUnicode(streams)

	var pages []string
	for _, stream := range streams {
		if text := streamText(string(inflate(stream)), table); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n"))
}

// contentStreams returns every stream...endstream body in the document.
func contentStreams(data []byte) [][]byte {
	startMarker := []byte("stream")
	endMarker := []byte("endstream")

	var streams [][]byte
	for offset := 0; offset < len(data); {
		idx := bytes.Index(data[offset:], startMarker)
		if idx < 0 {
			break
		}
		start := offset + idx + len(startMarker)
		// The keyword is followed by \r\n or \n before the body.
		if start < len(data) && data[start] == '\r' {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		end := bytes.Index(data[start:], endMarker)
		if end < 0 {
			break
		}
		if end > 0 {
			streams = append(streams, data[start:start+end])
		}
		offset = start + end + len(endMarker)
	}
	return streams
}

// inflate zlib-decompresses a stream body, returning it untouched when it is
// not compressed.
func inflate(data []byte) []byte {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return data
	}
	return out
}

// toUnicodeTable maps uppercase hex glyph codes to decoded text.
type toUnicodeTable struct {
	runes map[string]string
}

var (
	bfCharBlock  = regexp.MustCompile(`(?s)beginbfchar\s*(.*?)\s*endbfchar`)
	bfRangeBlock = regexp.MustCompile(`(?s)beginbfrange\s*(.*?)\s*endbfrange`)
	hexToken     = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
)

// collectToUnicode parses every ToUnicode CMap stream in the document into
// one merged table. Nil when the document carries none.
func collectToUnicode(streams [][]byte) *toUnicodeTable {
	table := &toUnicodeTable{runes: make(map[string]string)}
	for _, stream := range streams {
		content := string(inflate(stream))
		if !strings.Contains(content, "beginbfchar") && !strings.Contains(content, "beginbfrange") {
			continue
		}
		parseToUnicode(table, content)
	}
	if len(table.runes) == 0 {
		return nil
	}
	return table
}

func parseToUnicode(table *toUnicodeTable, content string) {
	// bfchar blocks: <srcCode> <unicode> pairs.
	for _, block := range bfCharBlock.FindAllStringSubmatch(content, -1) {
		tokens := hexToken.FindAllStringSubmatch(block[1], -1)
		for i := 0; i+1 < len(tokens); i += 2 {
			if uni := hexToUnicode(tokens[i+1][1]); uni != "" {
				table.runes[strings.ToUpper(tokens[i][1])] = uni
			}
		}
	}

	// bfrange blocks: <start> <end> <dstStart>, or <start> <end> [<u> ...].
	for _, block := range bfRangeBlock.FindAllStringSubmatch(content, -1) {
		for _, line := range strings.Split(block[1], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.Contains(line, "[") {
				parseRangeArray(table, line)
				continue
			}

			tokens := hexToken.FindAllStringSubmatch(line, -1)
			if len(tokens) < 3 {
				continue
			}
			start := hexValue(tokens[0][1])
			end := hexValue(tokens[1][1])
			dst := hexValue(tokens[2][1])
			if start < 0 || end < 0 || dst < 0 {
				continue
			}

			width := len(tokens[0][1])
			for code := start; code <= end; code++ {
				uni := hexToUnicode(hexKey(dst+(code-start), len(tokens[2][1])))
				if uni != "" {
					table.runes[hexKey(code, width)] = uni
				}
			}
		}
	}
}

// parseRangeArray handles the <start> <end> [<u1> <u2> ...] bfrange form.
func parseRangeArray(table *toUnicodeTable, line string) {
	bracket := strings.Index(line, "[")
	tokens := hexToken.FindAllStringSubmatch(line[:bracket], -1)
	if len(tokens) < 2 {
		return
	}
	start := hexValue(tokens[0][1])
	width := len(tokens[0][1])

	for i, ut := range hexToken.FindAllStringSubmatch(line[bracket:], -1) {
		if uni := hexToUnicode(ut[1]); uni != "" {
			table.runes[hexKey(start+i, width)] = uni
		}
	}
}

// decode maps raw string-operand bytes through the table. Code width is taken
// from the table's keys (one or two bytes in practice).
func (t *toUnicodeTable) decode(raw []byte) string {
	width := 1
	for k := range t.runes {
		width = len(k) / 2
		break
	}
	if width < 1 {
		width = 1
	}

	var out strings.Builder
	for i := 0; i <= len(raw)-width; i += width {
		chunk := raw[i : i+width]
		if uni, ok := t.runes[strings.ToUpper(hex.EncodeToString(chunk))]; ok {
			out.WriteString(uni)
			continue
		}
		// Single-byte retry for tables mixing widths.
		if width > 1 {
			if uni, ok := t.runes[strings.ToUpper(hex.EncodeToString(chunk[:1]))]; ok {
				out.WriteString(uni)
				i -= width - 1
				continue
			}
		}
		if width == 1 && chunk[0] >= 32 && chunk[0] < 127 {
			out.WriteByte(chunk[0])
		}
	}
	return out.String()
}

// Text-showing operators in content streams. Literal operands may contain
// backslash-escaped parentheses, so their bodies match escape pairs as units.
var (
	hexShow     = regexp.MustCompile(`<([0-9A-Fa-f]+)>\s*Tj`)
	literalShow = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*Tj`)
	arrayShow   = regexp.MustCompile(`\[([^\]]*)\]\s*TJ`)
	hexOperand  = regexp.MustCompile(`<([0-9A-Fa-f]+)>`)
	litOperand  = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)
	nextLine    = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)\s*'`)
	moveText    = regexp.MustCompile(`([\d.\-]+)\s+([\d.\-]+)\s+T[dD]`)
)

// streamText decodes the text-showing operators of one content stream,
// reconstructing line breaks from the positioning operators.
func streamText(content string, table *toUnicodeTable) string {
	if !strings.Contains(content, "Tj") && !strings.Contains(content, "TJ") &&
		!strings.Contains(content, "BT") {
		return ""
	}

	var lines []string
	for _, block := range textBlocks(content) {
		lines = append(lines, blockLines(block, table)...)
	}

	// No BT/ET structure at all; decode the operators in document order.
	if len(lines) == 0 {
		var parts []string
		for _, m := range hexShow.FindAllStringSubmatch(content, -1) {
			if s := decodeHexOperand(m[1], table); s != "" {
				parts = append(parts, s)
			}
		}
		for _, m := range literalShow.FindAllStringSubmatch(content, -1) {
			if s := decodeLiteralOperand(m[1], table); s != "" {
				parts = append(parts, s)
			}
		}
		for _, m := range arrayShow.FindAllStringSubmatch(content, -1) {
			if s := decodeArrayOperand(m[1], table); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// textBlocks returns the BT...ET spans of a content stream.
func textBlocks(content string) []string {
	var blocks []string
	for {
		bt := strings.Index(content, "BT")
		if bt < 0 {
			break
		}
		et := strings.Index(content[bt:], "ET")
		if et < 0 {
			break
		}
		blocks = append(blocks, content[bt:bt+et+2])
		content = content[bt+et+2:]
	}
	return blocks
}

func blockLines(block string, table *toUnicodeTable) []string {
	var lines []string
	var current strings.Builder

	flush := func() {
		if line := strings.TrimSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for _, op := range strings.Split(block, "\n") {
		op = strings.TrimSpace(op)

		// Td/TD and T* reposition the cursor; treat both as a line break.
		if op == "T*" || moveText.MatchString(op) {
			flush()
		}

		for _, m := range hexShow.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeHexOperand(m[1], table))
		}
		for _, m := range literalShow.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeLiteralOperand(m[1], table))
		}
		for _, m := range arrayShow.FindAllStringSubmatch(op, -1) {
			current.WriteString(decodeArrayOperand(m[1], table))
		}
		// The ' operator shows its operand on the next line.
		for _, m := range nextLine.FindAllStringSubmatch(op, -1) {
			flush()
			current.WriteString(decodeLiteralOperand(m[1], table))
		}
	}
	flush()
	return lines
}

func decodeHexOperand(hexStr string, table *toUnicodeTable) string {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return ""
	}

	if table != nil {
		if s := table.decode(raw); s != "" {
			return s
		}
	}

	// No table match; many producers hex-encode plain UTF-16BE.
	if len(raw) >= 2 && len(raw)%2 == 0 {
		var out strings.Builder
		for i := 0; i+1 < len(raw); i += 2 {
			cp := rune(raw[i])<<8 | rune(raw[i+1])
			if unicode.IsPrint(cp) || cp == ' ' {
				out.WriteRune(cp)
			}
		}
		if out.Len() > 0 {
			return out.String()
		}
	}
	return printableOnly(string(raw))
}

func decodeLiteralOperand(s string, table *toUnicodeTable) string {
	decoded := decodePDFEscapes(s)
	if table != nil {
		if out := table.decode([]byte(decoded)); out != "" && mostlyPrintable(out) {
			return out
		}
	}
	return printableOnly(decoded)
}

// decodeArrayOperand decodes a TJ array operand: string elements interleaved
// with kerning numbers, in document order.
func decodeArrayOperand(array string, table *toUnicodeTable) string {
	type element struct {
		pos   int
		isHex bool
		value string
	}
	var elements []element
	for _, idx := range hexOperand.FindAllStringSubmatchIndex(array, -1) {
		elements = append(elements, element{pos: idx[0], isHex: true, value: array[idx[2]:idx[3]]})
	}
	for _, idx := range litOperand.FindAllStringSubmatchIndex(array, -1) {
		elements = append(elements, element{pos: idx[0], value: array[idx[2]:idx[3]]})
	}
	for i := 1; i < len(elements); i++ {
		for j := i; j > 0 && elements[j].pos < elements[j-1].pos; j-- {
			elements[j], elements[j-1] = elements[j-1], elements[j]
		}
	}

	var out strings.Builder
	for _, el := range elements {
		if el.isHex {
			out.WriteString(decodeHexOperand(el.value, table))
		} else {
			out.WriteString(decodeLiteralOperand(el.value, table))
		}
	}
	return out.String()
}

// decodePDFEscapes resolves backslash escapes in a literal string operand.
func decodePDFEscapes(s string) string {
	var buf strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			buf.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case '(', ')', '\\':
			buf.WriteByte(s[i])
		default:
			if s[i] >= '0' && s[i] <= '7' {
				val := int(s[i] - '0')
				for j := 1; j < 3 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(s[i]-'0')
				}
				if val < 256 {
					buf.WriteByte(byte(val))
				}
			} else {
				buf.WriteByte(s[i])
			}
		}
	}
	return buf.String()
}

// printableOnly drops unprintable runes but keeps spacing: operands are
// fragments of a line, so trimming happens when the line is assembled.
func printableOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		return -1
	}, s)
}

func mostlyPrintable(s string) bool {
	runes := []rune(s)
	if len(runes) == 0 {
		return false
	}
	printable := 0
	for _, r := range runes {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable)/float64(len(runes)) > 0.5
}

func hexValue(h string) int {
	val := 0
	for _, c := range strings.ToUpper(h) {
		val <<= 4
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'A' && c <= 'F':
			val += int(c-'A') + 10
		default:
			return -1
		}
	}
	return val
}

// hexKey renders a code as a zero-padded uppercase hex key of the given width.
func hexKey(val, width int) string {
	h := strings.ToUpper(hex.EncodeToString([]byte{byte(val >> 8), byte(val)}))
	if len(h) > width {
		h = h[len(h)-width:]
	}
	for len(h) < width {
		h = "0" + h
	}
	return h
}

// hexToUnicode reads a hex-encoded UTF-16BE value, including surrogate pairs.
func hexToUnicode(h string) string {
	if len(h)%2 != 0 {
		h = "0" + h
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return ""
	}

	if len(data) == 4 {
		hi := rune(data[0])<<8 | rune(data[1])
		lo := rune(data[2])<<8 | rune(data[3])
		if hi >= 0xD800 && hi <= 0xDBFF && lo >= 0xDC00 && lo <= 0xDFFF {
			return string(utf16.DecodeRune(hi, lo))
		}
	}

	var out strings.Builder
	for i := 0; i+1 < len(data); i += 2 {
		out.WriteRune(rune(data[i])<<8 | rune(data[i+1]))
	}
	return out.String()
}
