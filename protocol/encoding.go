package protocol

import (
	"unicode/utf16"
	"unicode/utf8"
)

// OffsetEncoding is the unit a client counts Position.Character in. Servers
// negotiate one of a small fixed set; positions must be re-encoded per client
// before dispatch and after aggregation.
type OffsetEncoding string

const (
	EncodingUTF8  OffsetEncoding = "utf-8"
	EncodingUTF16 OffsetEncoding = "utf-16"
	EncodingUTF32 OffsetEncoding = "utf-32"
)

// Valid reports whether e is one of the known encodings.
func (e OffsetEncoding) Valid() bool {
	switch e {
	case EncodingUTF8, EncodingUTF16, EncodingUTF32:
		return true
	}
	return false
}

// TranslateCharacter re-encodes a character offset within a single line of
// text from one offset encoding to another. Offsets past the end of the line
// clamp to the line's length in the target encoding.
func TranslateCharacter(lineText string, char uint32, from, to OffsetEncoding) uint32 {
	if from == to {
		return char
	}
	byteOff := toByteOffset(lineText, int(char), from)
	return uint32(fromByteOffset(lineText, byteOff, to))
}

// TranslatePosition re-encodes pos.Character given the text of pos's line.
// The caller supplies the line text; chorus does not manage document content.
func TranslatePosition(lineText string, pos Position, from, to OffsetEncoding) Position {
	return Position{
		Line:      pos.Line,
		Character: TranslateCharacter(lineText, pos.Character, from, to),
	}
}

// toByteOffset walks the line counting code units in the source encoding
// until the requested offset is consumed.
func toByteOffset(line string, off int, enc OffsetEncoding) int {
	if enc == EncodingUTF8 {
		if off > len(line) {
			return len(line)
		}
		return off
	}
	units := 0
	byteOff := 0
	for byteOff < len(line) && units < off {
		r, size := utf8.DecodeRuneInString(line[byteOff:])
		if r == utf8.RuneError && size == 1 {
			units++
			byteOff++
			continue
		}
		units += runeLen(r, enc)
		byteOff += size
	}
	return byteOff
}

// fromByteOffset counts how many code units of enc precede byteOff.
func fromByteOffset(line string, byteOff int, enc OffsetEncoding) int {
	if byteOff > len(line) {
		byteOff = len(line)
	}
	if enc == EncodingUTF8 {
		return byteOff
	}
	units := 0
	for i := 0; i < byteOff; {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r == utf8.RuneError && size == 1 {
			units++
			i++
			continue
		}
		units += runeLen(r, enc)
		i += size
	}
	return units
}

func runeLen(r rune, enc OffsetEncoding) int {
	if enc == EncodingUTF32 {
		return 1
	}
	if n := len(utf16.Encode([]rune{r})); n > 0 {
		return n
	}
	return 1
}
