package render

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultLimit is the platform ceiling for a single message, in UTF-16
// code units.
const DefaultLimit = 4096

// Length measures s the way Telegram does: in UTF-16 code units, so runes
// outside the Basic Multilingual Plane, emoji included, count twice.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += units(r)
	}
	return n
}

// Invalid bytes decode to utf8.RuneError and count as one unit.
func units(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// Paginate packs blocks greedily into pages of at most limit units as
// measured by Length. A page is flushed when the next block would overflow
// it. A block longer than limit is split at its last newline within the
// limit, or at the last rune boundary that fits when it has none, so no
// page ever exceeds limit. Concatenating the pages yields exactly the
// concatenation of blocks, byte for byte.
func Paginate(blocks []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var pages []string
	var cur strings.Builder
	size := 0
	flush := func() {
		if size == 0 {
			return
		}
		pages = append(pages, cur.String())
		cur.Reset()
		size = 0
	}

	for _, block := range blocks {
		for _, piece := range split(block, limit) {
			n := Length(piece)
			if n == 0 {
				continue
			}
			if size+n > limit {
				flush()
			}
			cur.WriteString(piece)
			size += n
		}
	}
	flush()
	return pages
}

// split cuts block at byte offsets of rune boundaries, so invalid UTF-8 is
// carried through unchanged.
func split(block string, limit int) []string {
	if Length(block) <= limit {
		return []string{block}
	}
	var out []string
	for Length(block) > limit {
		size, cut, newline := 0, 0, 0
		for i := 0; i < len(block); {
			r, w := utf8.DecodeRuneInString(block[i:])
			u := units(r)
			if size+u > limit {
				break
			}
			size += u
			i += w
			cut = i
			if r == '\n' {
				newline = i
			}
		}
		if newline > 1 {
			cut = newline
		}
		if cut == 0 {
			// A surrogate pair under a limit of one unit still has to move.
			_, cut = utf8.DecodeRuneInString(block)
		}
		out = append(out, block[:cut])
		block = block[cut:]
	}
	if block != "" {
		out = append(out, block)
	}
	return out
}
