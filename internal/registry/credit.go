package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Credit statuses known to the registry.
const (
	StatusActive  = "Active"
	StatusRetired = "Retired"
)

// Credit is one carbon credit record from the registry catalogue.
type Credit struct {
	UnicID      string `json:"unic_id"`
	ProjectName string `json:"project_name"`
	Vintage     int    `json:"vintage"`
	Status      string `json:"status"`

	// searchKey is the precomputed lowercase concatenation of all fields,
	// built once at load time and reused for every text query.
	searchKey string
}

// Normalize trims fields, canonicalizes status casing, and rebuilds the
// search key. It returns an error for records the catalogue must reject.
func (c *Credit) Normalize() error {
	c.UnicID = strings.TrimSpace(c.UnicID)
	c.ProjectName = strings.TrimSpace(c.ProjectName)
	c.Status = canonicalStatus(c.Status)

	if c.UnicID == "" {
		return fmt.Errorf("credit is missing unic_id")
	}
	if c.Vintage <= 0 {
		return fmt.Errorf("credit %s has invalid vintage %d", c.UnicID, c.Vintage)
	}
	if c.Status == "" {
		return fmt.Errorf("credit %s has unknown status", c.UnicID)
	}

	c.searchKey = strings.ToLower(c.UnicID + " " + c.ProjectName + " " + strconv.Itoa(c.Vintage) + " " + c.Status)
	return nil
}

// Matches reports whether the lowercase needle occurs in the search key.
// The needle must already be lowercased by the caller.
func (c *Credit) Matches(needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(c.searchKey, needle)
}

func canonicalStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return StatusActive
	case "retired":
		return StatusRetired
	default:
		return ""
	}
}

// ValidStatus reports whether raw names a known status, ignoring case.
func ValidStatus(raw string) bool {
	return canonicalStatus(raw) != ""
}

// CanonicalStatus maps raw to its canonical form, or "" when unknown.
func CanonicalStatus(raw string) string {
	return canonicalStatus(raw)
}
