package render

import "testing"

func TestParseTemplateDefault(t *testing.T) {
	tokens := ParseTemplate("{timestamp} {level} [{logger}] {message}")
	want := []Token{
		{Kind: TokenField, Field: FieldTimestamp},
		{Kind: TokenLiteral, Text: " "},
		{Kind: TokenField, Field: FieldLevel},
		{Kind: TokenLiteral, Text: " ["},
		{Kind: TokenField, Field: FieldLogger},
		{Kind: TokenLiteral, Text: "] "},
		{Kind: TokenField, Field: FieldMessage},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i, w := range want {
		if tokens[i] != w {
			t.Errorf("token %d = %+v, want %+v", i, tokens[i], w)
		}
	}
}

func TestParseTemplateEscapedBraces(t *testing.T) {
	tokens := ParseTemplate("{{literal}} {message}")
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens: %+v", len(tokens), tokens)
	}
	if tokens[0].Kind != TokenLiteral || tokens[0].Text != "{literal} " {
		t.Errorf("token 0 = %+v", tokens[0])
	}
	if tokens[1].Kind != TokenField || tokens[1].Field != FieldMessage {
		t.Errorf("token 1 = %+v", tokens[1])
	}
}

func TestParseTemplateCustomField(t *testing.T) {
	tokens := ParseTemplate("{request_id}")
	if len(tokens) != 1 || tokens[0].Kind != TokenCustomField || tokens[0].Text != "request_id" {
		t.Fatalf("got %+v", tokens)
	}
}

func TestParseTemplateUnterminated(t *testing.T) {
	// An unterminated brace consumes the rest of the input as a name.
	tokens := ParseTemplate("x {never ends")
	if len(tokens) != 2 {
		t.Fatalf("got %d tokens: %+v", len(tokens), tokens)
	}
	if tokens[1].Kind != TokenCustomField || tokens[1].Text != "never ends" {
		t.Errorf("token 1 = %+v", tokens[1])
	}
}

func TestParseTemplateEmpty(t *testing.T) {
	if tokens := ParseTemplate(""); len(tokens) != 0 {
		t.Errorf("got %+v, want no tokens", tokens)
	}
}

func TestParseFieldList(t *testing.T) {
	set := ParseFieldList(" a, b ,, c ")
	if len(set) != 3 {
		t.Fatalf("got %v", set)
	}
	for _, k := range []string{"a", "b", "c"} {
		if _, ok := set[k]; !ok {
			t.Errorf("missing %q", k)
		}
	}
	if len(ParseFieldList("")) != 0 {
		t.Error("empty list should produce an empty set")
	}
}

func TestNewContextCollectsTemplateFields(t *testing.T) {
	tokens := ParseTemplate("{message} {request_id} {trace_id}")
	ctx := NewContext("", "", tokens)
	for _, k := range []string{"request_id", "trace_id"} {
		if _, ok := ctx.TemplateFields[k]; !ok {
			t.Errorf("missing template field %q", k)
		}
	}
	if _, ok := ctx.TemplateFields["message"]; ok {
		t.Error("canonical fields do not belong in TemplateFields")
	}
}
