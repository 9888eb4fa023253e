package bsdl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// keywords are matched case-insensitively ahead of Ident. The token name is
// what the grammar tags in ast.go refer to.
var keywords = [][2]string{
	{"KwEntity", "ENTITY"}, {"KwIs", "IS"}, {"KwEnd", "END"},
	{"KwGeneric", "GENERIC"}, {"KwPort", "PORT"}, {"KwUse", "USE"}, {"KwAll", "ALL"},
	{"KwAttribute", "ATTRIBUTE"}, {"KwOf", "OF"}, {"KwConstant", "CONSTANT"},

	// port modes
	{"KwIn", "IN"}, {"KwOut", "OUT"}, {"KwInout", "INOUT"},
	{"KwBuffer", "BUFFER"}, {"KwLinkage", "LINKAGE"},

	// types and literals
	{"KwBit", "BIT"}, {"KwBitVector", "BIT_VECTOR"}, {"KwString", "STRING"},
	{"KwInteger", "INTEGER"}, {"KwReal", "REAL"}, {"KwBoolean", "BOOLEAN"},
	{"KwTrue", "TRUE"}, {"KwFalse", "FALSE"},
}

var punctuation = [][2]string{
	{"Assign", `:=`}, {"Colon", `:`}, {"Semicolon", `;`}, {"Comma", `,`},
	{"Dot", `\.`}, {"Concat", `&`},
	{"LParen", `\(`}, {"RParen", `\)`}, {"LBracket", `\[`}, {"RBracket", `\]`},
}

// BSDLLexer tokenizes the VHDL subset used by BSDL.
var BSDLLexer = lexer.MustSimple(bsdlRules())

func bsdlRules() []lexer.SimpleRule {
	rules := []lexer.SimpleRule{
		{Name: "Comment", Pattern: `--[^\n]*`},
		{Name: "Whitespace", Pattern: `[\s]+`},
	}
	for _, kw := range keywords {
		rules = append(rules, lexer.SimpleRule{Name: kw[0], Pattern: `(?i)\b` + kw[1] + `\b`})
	}
	for _, p := range punctuation {
		rules = append(rules, lexer.SimpleRule{Name: p[0], Pattern: p[1]})
	}
	// Opcode and IDCODE bit patterns stay plain strings; the attribute
	// helpers interpret them.
	return append(rules,
		lexer.SimpleRule{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
		lexer.SimpleRule{Name: "Real", Pattern: `[-+]?[0-9]+\.[0-9]+([eE][-+]?[0-9]+)?`},
		lexer.SimpleRule{Name: "Integer", Pattern: `[-+]?[0-9]+`},
		lexer.SimpleRule{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9_]*`},
		lexer.SimpleRule{Name: "Asterisk", Pattern: `\*`},
	)
}
