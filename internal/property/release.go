package property

import "strings"

// Tier is the ordinal of a group of releases that share a column layout.
type Tier int

// NewestTier is assumed for releases that match no known version.
const NewestTier Tier = 4

// Release describes how a source version is handled.
type Release struct {
	Match        string
	Tier         Tier
	ClassMapFile string
	// Known is false when the version matched no entry and defaults were applied.
	Known bool
}

var releases = []Release{
	{Match: "2.36", Tier: 1, ClassMapFile: "classMappings-2.36.txt"},
	{Match: "2.38", Tier: 2, ClassMapFile: "classMappings-2.36.txt"},
	{Match: "2.40", Tier: 3, ClassMapFile: "classMappings-2.40.txt"},
	{Match: "2.44", Tier: 4, ClassMapFile: "classMappings-2.44.txt"},
	{Match: "2.46", Tier: 4, ClassMapFile: "classMappings-2.46.txt"},
	{Match: "2.48", Tier: 4, ClassMapFile: "classMappings-2.48.txt"},
}

// SelectRelease returns the release entry whose version string is contained in version.
// Unknown versions get the newest tier and class map with Known set to false.
func SelectRelease(version string) Release {
	for _, r := range releases {
		if strings.Contains(version, r.Match) {
			r.Known = true
			return r
		}
	}
	return Release{Match: version, Tier: NewestTier, ClassMapFile: "classMappings-2.48.txt"}
}
