package selection

import (
	"encoding/json"
	"testing"
)

func TestManager_SelectNotifiesSynchronously(t *testing.T) {
	m := NewManager()

	var got []Selection
	m.Subscribe(func(s Selection) { got = append(got, s) })

	m.SelectTrack("t1")
	if len(got) != 1 || got[0] != Track("t1") {
		t.Fatalf("notifications after SelectTrack = %v", got)
	}

	m.SelectElement("e1")
	if len(got) != 2 || got[1] != Element("e1") {
		t.Fatalf("notifications after SelectElement = %v", got)
	}
	if m.Current() != Element("e1") {
		t.Errorf("Current() = %v, want element:e1", m.Current())
	}
}

func TestManager_SameSelectionDoesNotNotify(t *testing.T) {
	m := NewManager()
	calls := 0
	m.Subscribe(func(Selection) { calls++ })

	m.SelectTrack("t1")
	m.SelectTrack("t1")
	m.Clear()
	m.Clear()

	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestManager_SubscribersRunInOrder(t *testing.T) {
	m := NewManager()
	var order []int
	m.Subscribe(func(Selection) { order = append(order, 1) })
	m.Subscribe(func(Selection) { order = append(order, 2) })

	m.SelectTrack("t")
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("order = %v, want [1 2]", order)
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	calls := 0
	unsubscribe := m.Subscribe(func(Selection) { calls++ })
	m.SelectTrack("a")
	unsubscribe()
	m.SelectTrack("b")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestManager_ClearIf(t *testing.T) {
	m := NewManager()
	m.SelectElement("e1")

	if m.ClearIf(func(s Selection) bool { return s.ID == "other" }) {
		t.Fatal("ClearIf cleared a non-matching selection")
	}
	if !m.ClearIf(func(s Selection) bool { return s.ID == "e1" }) {
		t.Fatal("ClearIf did not clear a matching selection")
	}
	if !m.Current().IsNone() {
		t.Errorf("Current() = %v, want none", m.Current())
	}
}

func TestSelection_JSON(t *testing.T) {
	tests := []struct {
		sel  Selection
		want string
	}{
		{None, `{"kind":"none"}`},
		{Track("t1"), `{"kind":"track","id":"t1"}`},
		{Element("e1"), `{"kind":"element","id":"e1"}`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.sel)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.sel, data, tt.want)
		}
		var back Selection
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal error = %v", err)
		}
		if back != tt.sel {
			t.Errorf("Unmarshal(%s) = %v", data, back)
		}
	}

	var bad Selection
	if err := json.Unmarshal([]byte(`{"kind":"track"}`), &bad); err == nil {
		t.Error("expected error for track selection without id")
	}
}
