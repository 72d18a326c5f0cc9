package session

import (
	"testing"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

func TestRegistryCaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("SysTime", func(s *Session, msg *protocol.Message) Plan {
		called = true
		return Ok(protocol.CodeOK, "OK")
	})

	fn, ok := r.Lookup("systime")
	if !ok {
		t.Fatal("expected lookup to find handler registered under different casing")
	}
	fn(nil, nil)
	if !called {
		t.Fatal("handler was not invoked")
	}
}

func TestRegistryDispatchUnknownVerb(t *testing.T) {
	r := NewRegistry()
	msg := protocol.NewCommand("nope")
	plan := r.Dispatch(nil, msg)
	if plan.Code != protocol.CodeGenericError {
		t.Fatalf("code = %d, want %d", plan.Code, protocol.CodeGenericError)
	}
}
