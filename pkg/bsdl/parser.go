package bsdl

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser reads BSDL device descriptions.
type Parser struct {
	parser *participle.Parser[BSDLFile]
}

// NewParser builds the grammar. The result is safe to reuse across files.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[BSDLFile](
		participle.Lexer(BSDLLexer),
		participle.Elide("Comment", "Whitespace"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("bsdl: build parser: %w", err)
	}
	return &Parser{parser: parser}, nil
}

// Parse reads a description from r. name is used in error positions.
func (p *Parser) Parse(name string, r io.Reader) (*BSDLFile, error) {
	file, err := p.parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("bsdl: parse: %w", err)
	}
	if file.Entity == nil {
		return nil, fmt.Errorf("bsdl: parse %s: no entity", name)
	}
	return file, nil
}

// ParseString parses an in-memory description.
func (p *Parser) ParseString(input string) (*BSDLFile, error) {
	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("bsdl: parse: %w", err)
	}
	return file, nil
}

// ParseFile parses the description stored at filename.
func (p *Parser) ParseFile(filename string) (*BSDLFile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("bsdl: open: %w", err)
	}
	defer f.Close()

	return p.Parse(filename, f)
}
