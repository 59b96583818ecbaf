package connectivity

import "testing"

func TestMonitor_InitialState(t *testing.T) {
	m := NewMonitor()
	if got := m.State(); got != Connecting {
		t.Errorf("new monitor state = %v, want %v", got, Connecting)
	}
}

func TestMonitor_SetState(t *testing.T) {
	m := NewMonitor()

	m.SetState(Online)
	if got := m.State(); got != Online {
		t.Errorf("state = %v, want %v", got, Online)
	}

	m.SetState(Offline)
	if got := m.State(); got != Offline {
		t.Errorf("state = %v, want %v", got, Offline)
	}
}

func TestMonitor_SubscribeNotifiesOnChange(t *testing.T) {
	m := NewMonitor()

	var seen []State
	m.Subscribe(func(s State) {
		seen = append(seen, s)
	})

	m.SetState(Online)
	m.SetState(Online) // no transition, no notification
	m.SetState(Offline)

	want := []State{Online, Offline}
	if len(seen) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Offline, "offline"},
		{Connecting, "connecting"},
		{Online, "online"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
