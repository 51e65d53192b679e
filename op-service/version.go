package op_service

import "strings"

// FormatVersion joins a semver with the short git commit, the commit date and a build tag,
// skipping the parts that are empty.
func FormatVersion(version string, gitCommit string, gitDate string, meta string) string {
	if len(gitCommit) > 8 {
		gitCommit = gitCommit[:8]
	}
	parts := []string{version}
	for _, p := range []string{gitCommit, gitDate, meta} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}
