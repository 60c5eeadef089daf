package render

import "strings"

// TokenKind separates the three template token shapes.
type TokenKind int

const (
	TokenLiteral TokenKind = iota
	TokenField
	TokenCustomField
)

// Field names a canonical role usable in a template.
type Field int

const (
	FieldLevel Field = iota
	FieldTimestamp
	FieldLogger
	FieldMessage
)

// Token is one parsed element of a format template.
type Token struct {
	Kind  TokenKind
	Text  string // literal text, or custom field name
	Field Field
}

// ParseTemplate scans a format template into tokens in a single
// left-to-right pass. `{{` and `}}` are escaped literal braces. `{name}`
// becomes a canonical field token when name is level, timestamp, logger
// or message, and a custom field token otherwise. An unterminated `{`
// consumes the rest of the input as the field name.
func ParseTemplate(template string) []Token {
	var tokens []Token
	var literal strings.Builder
	runes := []rune(template)

	flushLiteral := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenLiteral, Text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '{' && i+1 < len(runes) && runes[i+1] == '{':
			literal.WriteRune('{')
			i++
		case ch == '{':
			flushLiteral()
			var name strings.Builder
			for i++; i < len(runes) && runes[i] != '}'; i++ {
				name.WriteRune(runes[i])
			}
			tokens = append(tokens, fieldToken(name.String()))
		case ch == '}' && i+1 < len(runes) && runes[i+1] == '}':
			literal.WriteRune('}')
			i++
		default:
			literal.WriteRune(ch)
		}
	}
	flushLiteral()
	return tokens
}

func fieldToken(name string) Token {
	switch name {
	case "level":
		return Token{Kind: TokenField, Field: FieldLevel}
	case "timestamp":
		return Token{Kind: TokenField, Field: FieldTimestamp}
	case "logger":
		return Token{Kind: TokenField, Field: FieldLogger}
	case "message":
		return Token{Kind: TokenField, Field: FieldMessage}
	default:
		return Token{Kind: TokenCustomField, Text: name}
	}
}

// ParseFieldList splits a comma-separated field list into a set,
// trimming whitespace and dropping empty entries.
func ParseFieldList(list string) map[string]struct{} {
	set := make(map[string]struct{})
	if list == "" {
		return set
	}
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}

// Context is per-run render state computed once and reused for every
// record: the omit/add field sets and the custom field names the
// template already references.
type Context struct {
	OmitFields     map[string]struct{}
	AddFields      map[string]struct{}
	TemplateFields map[string]struct{}
}

// NewContext builds a render context from the add/omit field lists and
// the parsed template tokens.
func NewContext(addFields, omitFields string, tokens []Token) *Context {
	templateFields := make(map[string]struct{})
	for _, t := range tokens {
		if t.Kind == TokenCustomField {
			templateFields[t.Text] = struct{}{}
		}
	}
	return &Context{
		OmitFields:     ParseFieldList(omitFields),
		AddFields:      ParseFieldList(addFields),
		TemplateFields: templateFields,
	}
}
