package token

type TokenType int

const (
	// Literals
	Illegal TokenType = iota
	EOF
	Identifier
	PrivateName // #name
	Number
	BigInt
	String
	TemplateLiteral
	RegExp

	// Operators
	Plus
	Minus
	Asterisk
	Slash
	Percent
	Exponent // **
	Assign
	PlusAssign
	MinusAssign
	AsteriskAssign
	SlashAssign
	PercentAssign
	ExponentAssign
	AmpersandAssign
	PipeAssign
	CaretAssign
	LeftShiftAssign
	RightShiftAssign
	UnsignedRightShiftAssign
	NullishAssign // ??=
	AndAssign     // &&=
	OrAssign      // ||=
	Equal
	NotEqual
	StrictEqual
	StrictNotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	And
	Or
	Not
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	BitwiseNot
	LeftShift
	RightShift
	UnsignedRightShift
	Increment
	Decrement

	// Delimiters
	LeftParen
	RightParen
	LeftBrace
	RightBrace
	LeftBracket
	RightBracket
	Semicolon
	Colon
	Comma
	Dot
	Spread // ...
	Arrow  // =>
	QuestionMark
	OptionalChain   // ?.
	NullishCoalesce // ??

	// Keywords
	Var
	Let
	Const
	Function
	Return
	If
	Else
	While
	For
	Do
	Break
	Continue
	Switch
	Case
	Default
	Throw
	Try
	Catch
	Finally
	New
	Delete
	Typeof
	Void
	In
	Instanceof
	This
	Class
	Extends
	Super
	Import
	Export
	Yield
	Async
	Await
	True
	False
	Null
	Debugger
	With

	// Template literal parts
	TemplateHead
	TemplateMiddle
	TemplateTail
	NoSubstitutionTemplate
)

// Token is one lexeme. NewlineBefore records a line terminator between
// this token and the previous one, which drives semicolon insertion.
type Token struct {
	Type          TokenType
	Literal       string
	Line          int
	Column        int
	NewlineBefore bool
	// Raw is the source text of a template chunk before escapes are
	// processed.
	Raw string
}

var Keywords = map[string]TokenType{
	"var":        Var,
	"let":        Let,
	"const":      Const,
	"function":   Function,
	"return":     Return,
	"if":         If,
	"else":       Else,
	"while":      While,
	"for":        For,
	"do":         Do,
	"break":      Break,
	"continue":   Continue,
	"switch":     Switch,
	"case":       Case,
	"default":    Default,
	"throw":      Throw,
	"try":        Try,
	"catch":      Catch,
	"finally":    Finally,
	"new":        New,
	"delete":     Delete,
	"typeof":     Typeof,
	"void":       Void,
	"in":         In,
	"instanceof": Instanceof,
	"this":       This,
	"class":      Class,
	"extends":    Extends,
	"super":      Super,
	"import":     Import,
	"export":     Export,
	"yield":      Yield,
	"async":      Async,
	"await":      Await,
	"true":       True,
	"false":      False,
	"null":       Null,
	"debugger":   Debugger,
	"with":       With,
}

// Contextual keywords are scanned as identifiers and recognized by the
// parser only where the grammar expects them (from, as, of, get, set,
// static).

func LookupIdentifier(ident string) TokenType {
	if tok, ok := Keywords[ident]; ok {
		return tok
	}
	return Identifier
}

// IsKeyword reports whether t is a reserved word. Keywords are valid
// property names after a dot and in object literal keys.
func IsKeyword(t TokenType) bool {
	return t >= Var && t <= With
}

var names = map[TokenType]string{
	Illegal:     "ILLEGAL",
	EOF:         "end of input",
	Identifier:  "identifier",
	PrivateName: "private name",
	Number:      "number",
	BigInt:      "bigint",
	String:      "string",
	RegExp:      "regular expression",
}

// Describe renders a token for error messages.
func (t Token) Describe() string {
	if n, ok := names[t.Type]; ok && t.Type != Identifier && t.Type != Illegal {
		if t.Type == EOF {
			return n
		}
		return n + " " + t.Literal
	}
	return "'" + t.Literal + "'"
}
