// lexer_test.go
package lox

import (
	"reflect"
	"strings"
	"testing"
)

func toks(t *testing.T, src string) []Token {
	t.Helper()
	ts, err := NewLexer(src).Scan()
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	return ts
}

func typesWithoutEOF(tokens []Token) []TokenType {
	if len(tokens) == 0 {
		return nil
	}
	end := len(tokens)
	if tokens[end-1].Type == EOF {
		end--
	}
	out := make([]TokenType, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, tokens[i].Type)
	}
	return out
}

func wantTypes(t *testing.T, src string, want []TokenType) []Token {
	t.Helper()
	got := toks(t, src)
	gotTypes := typesWithoutEOF(got)
	if !reflect.DeepEqual(gotTypes, want) {
		t.Fatalf("\nsource:\n%s\nwant types:\n%v\ngot types:\n%v\n", src, want, gotTypes)
	}
	return got
}

func Test_Lexer_Punctuation_And_Operators(t *testing.T) {
	wantTypes(t, "(){},.-+;/*", []TokenType{
		LPAREN, RPAREN, LBRACE, RBRACE, COMMA, DOT, MINUS, PLUS, SEMICOLON, SLASH, STAR,
	})
	wantTypes(t, "! != = == > >= < <=", []TokenType{
		BANG, BANG_EQ, EQUAL, EQ, GREATER, GREATER_EQ, LESS, LESS_EQ,
	})
}

func Test_Lexer_Keywords_And_Identifiers(t *testing.T) {
	got := wantTypes(t, "var language = lox;", []TokenType{VAR, IDENT, EQUAL, IDENT, SEMICOLON})
	if got[1].Lexeme != "language" || got[3].Lexeme != "lox" {
		t.Fatalf("identifier lexemes wrong: %q, %q", got[1].Lexeme, got[3].Lexeme)
	}

	wantTypes(t, "and class else false fun for if nil or print return super this true var while",
		[]TokenType{AND, CLASS, ELSE, FALSE, FUN, FOR, IF, NIL, OR, PRINT, RETURN, SUPER, THIS, TRUE, VAR, WHILE})

	// Keywords embedded in longer identifiers stay identifiers.
	wantTypes(t, "classy orchid fortune", []TokenType{IDENT, IDENT, IDENT})
}

func Test_Lexer_Numbers(t *testing.T) {
	got := wantTypes(t, "123 45.67", []TokenType{NUMBER, NUMBER})
	if got[0].Literal.(float64) != 123 {
		t.Fatalf("123 parsed as %v", got[0].Literal)
	}
	if got[1].Literal.(float64) != 45.67 {
		t.Fatalf("45.67 parsed as %v", got[1].Literal)
	}
}

func Test_Lexer_Number_Dot_Boundaries(t *testing.T) {
	// A leading or trailing dot is not part of the number.
	wantTypes(t, "123.", []TokenType{NUMBER, DOT})
	wantTypes(t, ".123", []TokenType{DOT, NUMBER})
	got := wantTypes(t, "1.x", []TokenType{NUMBER, DOT, IDENT})
	if got[0].Lexeme != "1" {
		t.Fatalf("number lexeme %q, want %q", got[0].Lexeme, "1")
	}
}

func Test_Lexer_Strings(t *testing.T) {
	got := wantTypes(t, `"hi there"`, []TokenType{STRING})
	if got[0].Literal.(string) != "hi there" {
		t.Fatalf("string literal %q", got[0].Literal)
	}

	// Strings may span newlines and carry no escapes.
	got = toks(t, "\"line one\nline two\"")
	if got[0].Literal.(string) != "line one\nline two" {
		t.Fatalf("multi-line string literal %q", got[0].Literal)
	}
	if got[0].Line != 2 {
		t.Fatalf("multi-line string reported line %d", got[0].Line)
	}

	got = toks(t, `"a\nb"`)
	if got[0].Literal.(string) != `a\nb` {
		t.Fatalf("escapes must be raw, got %q", got[0].Literal)
	}
}

func Test_Lexer_Unterminated_String(t *testing.T) {
	_, err := NewLexer("\"never closed").Scan()
	if err == nil {
		t.Fatal("want error for unterminated string")
	}
	le, ok := err.(*LexError)
	if !ok {
		t.Fatalf("want *LexError, got %T", err)
	}
	if le.Line != 1 {
		t.Fatalf("error line %d, want 1", le.Line)
	}
}

func Test_Lexer_Unexpected_Character(t *testing.T) {
	lex := NewLexer("@ 1")
	_, err := lex.NextToken()
	if _, ok := err.(*LexError); !ok {
		t.Fatalf("want *LexError for '@', got %v", err)
	}
	// The lexer moved past the bad character; scanning can resume.
	tok, err := lex.NextToken()
	if err != nil || tok.Type != NUMBER {
		t.Fatalf("resume after error: tok=%v err=%v", tok, err)
	}
}

func Test_Lexer_Comments_And_Lines(t *testing.T) {
	got := wantTypes(t, "1 // ignored to end of line\n2", []TokenType{NUMBER, NUMBER})
	if got[0].Line != 1 || got[1].Line != 2 {
		t.Fatalf("lines %d, %d; want 1, 2", got[0].Line, got[1].Line)
	}
}

func Test_Lexer_Lexemes_Reconstruct_Source(t *testing.T) {
	src := "var a=1;print a<=2;"
	ts := toks(t, src)
	// Lexemes are raw source slices; putting back the whitespace that lies
	// between them must give the source again.
	var b strings.Builder
	pos := 0
	for _, tok := range ts {
		i := strings.Index(src[pos:], tok.Lexeme)
		if i < 0 || strings.TrimSpace(src[pos:pos+i]) != "" {
			t.Fatalf("lexeme %q does not follow offset %d after whitespace only", tok.Lexeme, pos)
		}
		b.WriteString(src[pos : pos+i])
		b.WriteString(tok.Lexeme)
		pos += i + len(tok.Lexeme)
	}
	if b.String() != src {
		t.Fatalf("concatenated lexemes %q, want %q", b.String(), src)
	}
}

func Test_Lexer_EOF_Terminates(t *testing.T) {
	lex := NewLexer("")
	for i := 0; i < 3; i++ {
		tok, err := lex.NextToken()
		if err != nil || tok.Type != EOF {
			t.Fatalf("call %d: tok=%v err=%v", i, tok, err)
		}
	}
}
