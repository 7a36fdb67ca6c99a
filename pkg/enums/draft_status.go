package enums

import "fmt"

// DraftStatus tracks where a draft order sits in its lifecycle.
type DraftStatus string

const (
	DraftStatusBuilding   DraftStatus = "building"
	DraftStatusSubmitting DraftStatus = "submitting"
	DraftStatusSubmitted  DraftStatus = "submitted"
)

var validDraftStatuses = []DraftStatus{
	DraftStatusBuilding,
	DraftStatusSubmitting,
	DraftStatusSubmitted,
}

// String implements fmt.Stringer.
func (d DraftStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DraftStatus.
func (d DraftStatus) IsValid() bool {
	for _, candidate := range validDraftStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDraftStatus converts raw input into a DraftStatus.
func ParseDraftStatus(value string) (DraftStatus, error) {
	for _, candidate := range validDraftStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft status %q", value)
}
