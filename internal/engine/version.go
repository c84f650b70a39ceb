package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// hostVersion is the major.minor part of a host build version such as "9.0.2".
type hostVersion struct {
	major int
	minor int
}

func parseHostVersion(raw string) (hostVersion, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return hostVersion{}, fmt.Errorf("parse host version %q: %w", raw, err)
	}
	v := hostVersion{major: major}
	if len(parts) > 1 && parts[1] != "" {
		minor, err := strconv.Atoi(parts[1])
		if err != nil {
			return hostVersion{}, fmt.Errorf("parse host version %q: %w", raw, err)
		}
		v.minor = minor
	}
	return v, nil
}

func (v hostVersion) compare(major, minor int) int {
	switch {
	case v.major != major:
		return v.major - major
	default:
		return v.minor - minor
	}
}

func (v hostVersion) String() string {
	return fmt.Sprintf("%d.%d", v.major, v.minor)
}
