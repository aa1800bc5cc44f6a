package chat

import (
	"reflect"
	"strings"
	"testing"
)

func testPageContext() PageContext {
	return PageContext{
		ExtractedText: "Title: Example\n\nContent:\nbody text",
		Screenshot:    "aGVsbG8=",
	}
}

func TestComposeMergesIntoFirstUserTurn(t *testing.T) {
	history := []Message{
		NewUserMessage("what is this page?"),
		NewModelMessage("a demo"),
		NewUserMessage("thanks"),
	}

	out := Compose(history, testPageContext(), nil)

	if len(out) != len(history) {
		t.Fatalf("expected %d messages, got %d", len(history), len(out))
	}
	first := out[0]
	if first.Role != RoleUser {
		t.Fatalf("first role = %q", first.Role)
	}
	// system instruction, page text, screenshot, then the user's own part
	if len(first.Parts) != 4 {
		t.Fatalf("expected 4 parts in merged first turn, got %d", len(first.Parts))
	}
	if !first.Parts[2].IsImage() {
		t.Fatal("expected third context part to be the screenshot")
	}
	if first.Parts[3].Text != "what is this page?" {
		t.Fatalf("user part displaced: %q", first.Parts[3].Text)
	}
}

func TestComposeSyntheticLeadingMessage(t *testing.T) {
	cases := map[string][]Message{
		"empty history": {},
		"model first":   {NewModelMessage("welcome")},
	}
	for name, history := range cases {
		out := Compose(history, testPageContext(), nil)
		if len(out) != len(history)+1 {
			t.Fatalf("%s: expected %d messages, got %d", name, len(history)+1, len(out))
		}
		if out[0].Role != RoleUser {
			t.Fatalf("%s: leading role = %q", name, out[0].Role)
		}
		if len(out[0].Parts) != 3 {
			t.Fatalf("%s: expected 3 context parts, got %d", name, len(out[0].Parts))
		}
	}
}

func TestComposeDoesNotMutateHistory(t *testing.T) {
	history := []Message{NewUserMessage("hello")}
	_ = Compose(history, testPageContext(), nil)

	if len(history[0].Parts) != 1 || history[0].Parts[0].Text != "hello" {
		t.Fatalf("history mutated: %+v", history[0])
	}
}

func TestComposeIsIdempotentForSameContext(t *testing.T) {
	pc := testPageContext()
	a := Compose(nil, pc, nil)
	b := Compose(nil, pc, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("composing the same context twice produced different parts")
	}
}

func TestComposeIncludesFileBlock(t *testing.T) {
	file := &UploadedFile{Name: "notes.txt", Content: "line one"}
	out := Compose(nil, testPageContext(), file)

	parts := out[0].Parts
	last := parts[len(parts)-1].Text
	if !strings.Contains(last, "--- Uploaded File: notes.txt ---") {
		t.Fatalf("missing file header in %q", last)
	}
	if !strings.Contains(last, "line one") {
		t.Fatalf("missing file content in %q", last)
	}
	if !strings.Contains(last, "--- End of File ---") {
		t.Fatalf("missing file footer in %q", last)
	}
}

func TestComposeOmitsFileBlockWhenNoFile(t *testing.T) {
	out := Compose(nil, testPageContext(), nil)
	for _, p := range out[0].Parts {
		if strings.Contains(p.Text, "Uploaded File") {
			t.Fatal("unexpected file block without an active file")
		}
	}
}
