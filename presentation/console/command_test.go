package console

import "testing"

func TestRegistryDispatch(t *testing.T) {
	called := ""
	reg := NewRegistry([]Command{
		{Name: "echo", Help: "echo args back", ID: 1, Handler: func(args string) string {
			called = args
			return "got: " + args
		}},
	})

	if _, ok := reg.Lookup("missing"); ok {
		t.Fatalf("Lookup found a command that was never registered")
	}

	got := reg.Dispatch("echo", "hello")
	if got != "got: hello" {
		t.Fatalf("Dispatch returned %q, want %q", got, "got: hello")
	}
	if called != "hello" {
		t.Fatalf("handler saw args %q, want %q", called, "hello")
	}

	if got := reg.Dispatch("nope", ""); got != "no such command: nope" {
		t.Fatalf("Dispatch on unknown command = %q", got)
	}

	if len(reg.Commands()) != 1 {
		t.Fatalf("Commands() returned %d entries, want 1", len(reg.Commands()))
	}
}
