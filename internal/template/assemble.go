package template

import (
	"strings"
	"unicode"
)

// PieceKind classifies a fragment of an evaluated macro argument.
type PieceKind uint8

const (
	// PieceText is unquoted source text.
	PieceText PieceKind = iota
	// PieceQuoted is the content of a backtick segment.
	PieceQuoted
	// PieceResult is the output of a nested macro call.
	PieceResult
)

// Piece is one fragment of an argument, in source order.
type Piece struct {
	Kind PieceKind
	Text string
}

// Assemble joins the pieces of one argument into its final string.
//
// Unquoted text is trimmed on the left, and on the right unless a nested
// call result follows it directly. Text that is blank after trimming is
// dropped. Quoted content and call results are used as they are.
func Assemble(pieces []Piece) string {
	var b strings.Builder
	for i, p := range pieces {
		if p.Kind != PieceText {
			b.WriteString(p.Text)
			continue
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		s := strings.TrimLeftFunc(p.Text, unicode.IsSpace)
		if i+1 >= len(pieces) || pieces[i+1].Kind != PieceResult {
			s = strings.TrimRightFunc(s, unicode.IsSpace)
		}
		b.WriteString(s)
	}
	return b.String()
}

// MergeText collapses runs of adjacent PieceText fragments so that trimming
// applies to the run as a whole.
func MergeText(pieces []Piece) []Piece {
	out := pieces[:0:0]
	for _, p := range pieces {
		if p.Kind == PieceText && len(out) > 0 && out[len(out)-1].Kind == PieceText {
			out[len(out)-1].Text += p.Text
			continue
		}
		out = append(out, p)
	}
	return out
}
