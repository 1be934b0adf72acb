package timing

import "testing"

func TestNewStateMachine_InitialStateIsIdle(t *testing.T) {
	sm := NewStateMachine()
	if sm.Current() != StateIdle {
		t.Fatalf("expected initial state Idle, got %s", sm.Current())
	}
}

func TestStateMachine_Transitions(t *testing.T) {
	sm := NewStateMachine()
	if !sm.Transition(StatePlaying) {
		t.Fatal("Idle → Playing should be valid")
	}
	if sm.Transition(StatePlaying) {
		t.Fatal("Playing → Playing should be invalid")
	}
	if !sm.Transition(StateIdle) {
		t.Fatal("Playing → Idle should be valid")
	}
	if sm.Transition(State(7)) {
		t.Fatal("unknown state should be rejected")
	}
	if sm.Current() != StateIdle {
		t.Fatalf("expected Idle, got %s", sm.Current())
	}
}

func TestStateMachine_OnChange(t *testing.T) {
	sm := NewStateMachine()
	var changes [][2]State
	sm.SetOnChange(func(from, to State) {
		changes = append(changes, [2]State{from, to})
	})

	sm.Transition(StatePlaying)
	sm.ForceIdle()
	sm.ForceIdle() // 已是 Idle，不触发回调

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0] != [2]State{StateIdle, StatePlaying} || changes[1] != [2]State{StatePlaying, StateIdle} {
		t.Fatalf("unexpected changes: %v", changes)
	}
}

func TestState_String(t *testing.T) {
	if StateIdle.String() != "Idle" || StatePlaying.String() != "Playing" || State(9).String() != "Unknown" {
		t.Fatal("unexpected state names")
	}
	if ModeFallback.String() != "fallback" || Mode(9).String() != "unknown" {
		t.Fatal("unexpected mode names")
	}
}
