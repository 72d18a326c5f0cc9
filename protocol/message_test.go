package protocol

import "testing"

func TestParseCommand(t *testing.T) {
	m, err := ParseMessage(`DIRLIST NAME="E:\Games" flag1`)
	if err != nil {
		t.Fatal(err)
	}
	if m.IsResponse() {
		t.Fatal("expected a command, got a response")
	}
	if m.Verb() != "DIRLIST" {
		t.Fatalf("Verb() = %q", m.Verb())
	}
	v, ok := m.Param("name")
	if !ok {
		t.Fatal("expected NAME parameter")
	}
	if v.String() != `E:\Games` {
		t.Fatalf("NAME = %q", v.String())
	}
	if !m.HasFlag("flag1") {
		t.Fatal("expected flag1 to be present")
	}
}

func TestParseResponseCode(t *testing.T) {
	m, err := ParseMessage("202- multiline response follows")
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsResponse() {
		t.Fatal("expected a response")
	}
	if m.Code() != 202 {
		t.Fatalf("Code() = %d", m.Code())
	}
}

func TestKeysAreCaseInsensitiveAndStoredLower(t *testing.T) {
	m, err := ParseMessage(`dirlist NAME="x" Name="y"`)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := m.Param("name")
	if !ok {
		t.Fatal("expected name parameter")
	}
	if v.String() != "y" {
		t.Fatalf("expected last write to win, got %q", v.String())
	}
}

func TestMessageRoundTrip(t *testing.T) {
	m := NewCommand("dirlist")
	m.SetParam("NAME", NewQuotedString(`E:\Games`))
	m.SetFlag("Directory")

	line := m.Encode()
	reparsed, err := ParseMessage(line)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if reparsed.Verb() != m.Verb() {
		t.Fatalf("verb mismatch after round trip: %q vs %q", reparsed.Verb(), m.Verb())
	}
	v, ok := reparsed.Param("name")
	if !ok || v.String() != `E:\Games` {
		t.Fatalf("param mismatch after round trip: %+v", v)
	}
	if !reparsed.HasFlag("directory") {
		t.Fatal("expected directory flag to survive round trip")
	}
}

func TestEncodeWithTextForOKReply(t *testing.T) {
	m := NewResponse(CodeOK)
	if got := m.EncodeWithText("bye"); got != "200- bye" {
		t.Fatalf("EncodeWithText() = %q", got)
	}
}

func TestEncodeEmitsLowercaseKeys(t *testing.T) {
	m := NewResponse(CodeOK)
	m.SetParam("HIGH", NewDword(1))
	m.SetParam("Low", NewDword(2))
	got := m.EncodeWithText("")
	want := "200- high=0x1 low=0x2"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}
