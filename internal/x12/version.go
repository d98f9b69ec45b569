package x12

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is an X12 protocol release.
type Version int

const (
	VersionUnknown Version = 0
	Version4010    Version = 4010
	Version5010    Version = 5010
	Version6010    Version = 6010
	Version8010    Version = 8010
)

// KnownVersions lists every release the catalog can describe.
var KnownVersions = []Version{Version4010, Version5010, Version6010, Version8010}

var isaVersionCodes = map[string]Version{
	"00401": Version4010,
	"00501": Version5010,
	"00601": Version6010,
	"00801": Version8010,
}

// VersionFromISA maps an ISA12 control version number to a Version.
func VersionFromISA(code string) Version {
	if v, ok := isaVersionCodes[strings.TrimSpace(code)]; ok {
		return v
	}
	return VersionUnknown
}

// ParseVersion accepts "4010", "004010", "00401" or "v4010".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "v")
	if v := VersionFromISA(s); v != VersionUnknown {
		return v, nil
	}
	s = strings.TrimLeft(s, "0")
	for _, v := range KnownVersions {
		if s == v.String() {
			return v, nil
		}
	}
	return VersionUnknown, fmt.Errorf("unsupported X12 version %q", s)
}

// String returns the release number, e.g. "4010".
func (v Version) String() string {
	if v == VersionUnknown {
		return "unknown"
	}
	return fmt.Sprintf("%d", int(v))
}

// ISACode returns the ISA12 code for the version, e.g. "00401".
func (v Version) ISACode() string {
	for code, known := range isaVersionCodes {
		if known == v {
			return code
		}
	}
	return ""
}

// SemVer maps a release onto a semantic version so agreements can use range
// constraints: 4010 becomes 4.1.0, 5010 becomes 5.1.0.
func (v Version) SemVer() *semver.Version {
	n := int(v)
	return semver.New(uint64(n/1000), uint64((n%1000)/10), uint64(n%10), "", "")
}
