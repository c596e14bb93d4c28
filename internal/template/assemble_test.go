package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key     string
		name    string
		argList string
	}{
		{"clientId(scope)", "clientId", "(scope)"},
		{"bar(3,4)", "bar", "(3,4)"},
		{"plain", "plain", ""},
		{"", "", ""},
		{"foo bar", "foo bar", ""},
		{"AAA(BBB(1))", "AAA(BBB(1))", ""},
		{"AAA(BBB(1,2))", "AAA(BBB(1,2))", ""},
		{"a b(c)", "a b(c)", ""},
		{"QUERY_PARAM(foo,bar)", "QUERY_PARAM", "(foo,bar)"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			name, argList := SplitKey(tt.key)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.argList, argList)
		})
	}
}

func TestAssemble(t *testing.T) {
	text := func(s string) Piece { return Piece{Kind: PieceText, Text: s} }
	quoted := func(s string) Piece { return Piece{Kind: PieceQuoted, Text: s} }
	result := func(s string) Piece { return Piece{Kind: PieceResult, Text: s} }

	tests := []struct {
		name   string
		pieces []Piece
		want   string
	}{
		{"empty", nil, ""},
		{"trimmed text", []Piece{text("  a b  ")}, "a b"},
		{"quoted keeps spaces", []Piece{text(" "), quoted(" x ")}, " x "},
		{"text before result keeps right space", []Piece{text(" pre "), result("R")}, "pre R"},
		{"text after result trimmed", []Piece{result("R"), text(" post ")}, "Rpost"},
		{"blank text dropped", []Piece{result("A"), text("   "), result("B")}, "AB"},
		{"text before quote trimmed", []Piece{text(" a "), quoted("-")}, "a-"},
		{"empty result", []Piece{result("")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Assemble(tt.pieces))
		})
	}
}

func TestMergeText(t *testing.T) {
	in := []Piece{
		{Kind: PieceText, Text: " a"},
		{Kind: PieceText, Text: "F(x) "},
		{Kind: PieceResult, Text: "R"},
		{Kind: PieceText, Text: "b"},
	}
	out := MergeText(in)
	assert.Equal(t, []Piece{
		{Kind: PieceText, Text: " aF(x) "},
		{Kind: PieceResult, Text: "R"},
		{Kind: PieceText, Text: "b"},
	}, out)
	assert.Equal(t, "aF(x) Rb", Assemble(out))
}
