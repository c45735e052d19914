package parser

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SelectLexer tokenizes projection strings such as "title,community!inner(name)".
// A name is any run of characters other than whitespace and the projection
// delimiters, so "first-name" and "2fa" are valid columns.
var SelectLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[^\s(),!*]+`},
	{Name: "Star", Pattern: `\*`},
	{Name: "Punct", Pattern: `[(),!]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// FilterLexer tokenizes filter expressions such as "age between 18 and 30".
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Assign", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"'=]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})
