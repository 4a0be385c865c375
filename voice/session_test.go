package voice

import "testing"

func TestNewSessionRegistryDefaults(t *testing.T) {
	r := newSessionRegistry()

	for i := range r.sessions {
		s := &r.sessions[i]
		if s.slot != i {
			t.Errorf("session %d: slot = %d", i, s.slot)
		}
		if s.vsid != slotSubsystems[i] {
			t.Errorf("session %d: vsid = 0x%x, want 0x%x", i, uint32(s.vsid), uint32(slotSubsystems[i]))
		}
		if s.state != CallInactive || s.newState != CallInactive {
			t.Errorf("session %d: state = %s, requested = %s, want inactive", i, s.state, s.newState)
		}
		if s.volume != volumeUnset {
			t.Errorf("session %d: volume = %f, want unset", i, s.volume)
		}
		if s.handle != nil {
			t.Errorf("session %d: handle must start nil", i)
		}
	}
}

func TestRegistryByID(t *testing.T) {
	r := newSessionRegistry()

	if s := r.byID(VSIDVoice); s == nil || s.slot != 0 {
		t.Errorf("byID(VSIDVoice) = %v, want slot 0", s)
	}
	if s := r.byID(VSIDVoice2); s == nil || s.slot != 1 {
		t.Errorf("byID(VSIDVoice2) = %v, want slot 1", s)
	}
	if s := r.byID(SubsystemID(0x1234)); s != nil {
		t.Errorf("byID(unknown) = %v, want nil", s)
	}
}

func TestRegistryEachVisitsSlotOrder(t *testing.T) {
	r := newSessionRegistry()

	var order []int
	r.each(func(s *CallSession) {
		order = append(order, s.slot)
	})

	if len(order) != SessionCount {
		t.Fatalf("visited %d sessions, want %d", len(order), SessionCount)
	}
	for i, slot := range order {
		if slot != i {
			t.Errorf("visit %d hit slot %d, want slot order", i, slot)
		}
	}
}

func TestRegistryActivityQueries(t *testing.T) {
	r := newSessionRegistry()

	if r.anyActive() || r.anyRequestedActive() {
		t.Fatal("fresh registry must be fully inactive")
	}

	r.sessions[1].newState = CallActive
	if r.anyActive() {
		t.Error("a pending request must not count as active")
	}
	if !r.anyRequestedActive() {
		t.Error("anyRequestedActive must see the pending request")
	}

	r.sessions[1].state = CallActive
	if !r.anyActive() {
		t.Error("anyActive must see the active session")
	}
}
