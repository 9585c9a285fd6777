package domain

import "testing"

func TestNormalizeResourceName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"GroupA", "groupa"},
		{"  GroupA  ", "groupa"},
		{"WS-001", "ws-001"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := NormalizeResourceName(tc.in); got != tc.want {
			t.Errorf("NormalizeResourceName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMembershipSetContains(t *testing.T) {
	set := NewMembershipSet([]string{"GroupA", "  GroupB "})

	if !set.Contains("groupa") || !set.Contains("GROUPB") {
		t.Fatalf("expected case-insensitive membership")
	}
	if set.Contains("GroupC") {
		t.Fatalf("unexpected membership for GroupC")
	}
	if set.Contains("") || set.Contains("   ") {
		t.Fatalf("empty names must never match")
	}
}

func TestValidActionType(t *testing.T) {
	for _, action := range []ActionType{ActionAdd, ActionRemove, ActionModify} {
		if !ValidActionType(action) {
			t.Errorf("expected %q to be valid", action)
		}
	}
	if ValidActionType("escalate") || ValidActionType("") {
		t.Fatalf("unexpected valid action")
	}
}
