package parser

// cursor is a read position over normalized lines. Steps take a cursor and
// return the advanced one; a cursor value is never mutated in place.
type cursor struct {
	lines []string
	pos   int
}

func newCursor(lines []string) cursor {
	return cursor{lines: lines}
}

func (c cursor) done() bool {
	return c.pos >= len(c.lines)
}

// line returns the current line; callers check done first.
func (c cursor) line() string {
	return c.lines[c.pos]
}

// peek returns the line after the current one.
func (c cursor) peek() (string, bool) {
	if c.pos+1 >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos+1], true
}

func (c cursor) next() cursor {
	return c.advance(1)
}

func (c cursor) advance(n int) cursor {
	c.pos += n
	if c.pos > len(c.lines) {
		c.pos = len(c.lines)
	}
	return c
}

// seek scans forward from the current line and stops on the first line
// accepted by match. The returned cursor is done when nothing matched.
func (c cursor) seek(match func(string) bool) cursor {
	for ; !c.done(); c = c.next() {
		if match(c.line()) {
			return c
		}
	}
	return c
}
