package kind

import (
	"testing"
)

// A small element taxonomy to exercise Make/Is. The first Make() call
// yields ID 0, which Is would match against every Kind, so it is discarded.
var (
	_               = Make()
	Element         = Make()
	Behavior        = Make(Element)
	StateMachine    = Make(Behavior)
	Vertex          = Make(Element)
	State           = Make(Vertex)
	Pseudostate     = Make(Vertex)
	Choice          = Make(Pseudostate)
	Event           = Make(Element)
	CompletionEvent = Make(Event)
	ErrorEvent      = Make(CompletionEvent)
)

func TestKinds(t *testing.T) {
	if !Is(StateMachine, Behavior) {
		t.Errorf("StateMachine should be a Behavior")
	}
	if Is(StateMachine, Vertex) {
		t.Errorf("StateMachine should not be a Vertex")
	}
	if !Is(State, Vertex) {
		t.Errorf("State should be a Vertex")
	}
	if Is(State, Behavior) {
		t.Errorf("State should not be a Behavior")
	}
	if !Is(Choice, Pseudostate) {
		t.Errorf("Choice should be a PseudoState")
	}
	if !Is(Choice, Vertex) {
		t.Errorf("Choice should be a Vertex")
	}
	if !Is(ErrorEvent, CompletionEvent) {
		t.Errorf("ErrorEvent should be a CompletionEvent")
	}
	if Is(ErrorEvent, Vertex) {
		t.Errorf("ErrorEvent should not be a Vertex")
	}

}
