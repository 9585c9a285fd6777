package usecase

import (
	"testing"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

func TestReconcileSeedsLinesFromMemberships(t *testing.T) {
	all := []domain.DirectoryResource{
		{Name: "GroupA"},
		{Name: "GroupB"},
	}
	memberships := domain.NewMembershipSet([]string{"GroupA"})

	lines := Reconcile(all, memberships)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	if !lines[0].Granted || !lines[0].Requested {
		t.Fatalf("expected GroupA line granted and requested, got %+v", lines[0])
	}
	if lines[1].Granted || lines[1].Requested {
		t.Fatalf("expected GroupB line not granted and not requested, got %+v", lines[1])
	}
}

func TestReconcileMembershipMatchIsCaseInsensitive(t *testing.T) {
	all := []domain.DirectoryResource{
		{Name: "GroupA"},
	}
	memberships := domain.NewMembershipSet([]string{"GROUPA"})

	lines := Reconcile(all, memberships)
	if !lines[0].Granted {
		t.Fatalf("expected case-insensitive membership match, got %+v", lines[0])
	}
}

func TestReconcileEmptyNameNeverMatches(t *testing.T) {
	all := []domain.DirectoryResource{
		{Name: ""},
	}
	memberships := domain.NewMembershipSet([]string{""})

	lines := Reconcile(all, memberships)
	if lines[0].Granted {
		t.Fatalf("expected empty-named resource to never match a membership")
	}
}

func TestReconcilePreservesCatalogOrder(t *testing.T) {
	all := []domain.DirectoryResource{
		{Name: "GroupC"},
		{Name: "GroupA"},
		{Name: "GroupB"},
	}

	lines := Reconcile(all, domain.MembershipSet{})
	for i, want := range []string{"GroupC", "GroupA", "GroupB"} {
		if lines[i].Resource.Name != want {
			t.Fatalf("expected %q at index %d, got %q", want, i, lines[i].Resource.Name)
		}
	}
}

func TestSelectedLines(t *testing.T) {
	lines := []domain.RequestLine{
		{Resource: domain.DirectoryResource{Name: "GroupA"}, Requested: true},
		{Resource: domain.DirectoryResource{Name: "GroupB"}, Requested: false},
		{Resource: domain.DirectoryResource{Name: "GroupC"}, Requested: true},
	}

	selected := SelectedLines(lines)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected lines, got %d", len(selected))
	}
	if selected[0].Resource.Name != "GroupA" || selected[1].Resource.Name != "GroupC" {
		t.Fatalf("unexpected selection order: %+v", selected)
	}
}
