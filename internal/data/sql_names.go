package data

import (
	"fmt"
	"regexp"
)

// objectNamePattern accepts schema-qualified identifiers such as dbo.v_DepartmentDirectory.
var objectNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

// checkObjectName rejects configured object names that cannot be interpolated
// into a statement safely. Values never go through here, only configuration.
func checkObjectName(kind, name string) error {
	if !objectNamePattern.MatchString(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	return nil
}
