package usecase

import "github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"

// Reconcile computes the delta edit surface: one RequestLine per catalog
// resource in catalog order, with Granted and Requested both seeded from
// the requester's current memberships. An unmodified submission is
// therefore a no-op request. Resources with empty names never match a
// membership.
func Reconcile(all []domain.DirectoryResource, memberships domain.MembershipSet) []domain.RequestLine {
	lines := make([]domain.RequestLine, 0, len(all))
	for _, resource := range all {
		granted := memberships.Contains(resource.Name)
		lines = append(lines, domain.RequestLine{
			Resource:  resource,
			Granted:   granted,
			Requested: granted,
		})
	}
	return lines
}

// SelectedLines returns the subsequence of lines with Requested set, in
// their original order.
func SelectedLines(lines []domain.RequestLine) []domain.RequestLine {
	selected := make([]domain.RequestLine, 0, len(lines))
	for _, line := range lines {
		if line.Requested {
			selected = append(selected, line)
		}
	}
	return selected
}
