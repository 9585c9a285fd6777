package usecase

import (
	"strings"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/domain"
)

// FilterResources narrows the catalog to resources whose name or
// description contains the query, case-insensitively. A blank query returns
// the input slice unchanged. The function never mutates its input and
// preserves catalog order.
func FilterResources(all []domain.DirectoryResource, query string) []domain.DirectoryResource {
	query = strings.TrimSpace(query)
	if query == "" {
		return all
	}

	needle := strings.ToLower(query)
	filtered := make([]domain.DirectoryResource, 0, len(all))
	for _, resource := range all {
		if strings.Contains(strings.ToLower(resource.Name), needle) ||
			strings.Contains(strings.ToLower(resource.Description), needle) {
			filtered = append(filtered, resource)
		}
	}
	return filtered
}
