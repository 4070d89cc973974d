package sources

import (
	"regexp"
	"strings"
)

// NormalizePkgName converts a package name to its canonical form: lowercase
// with underscores replaced by hyphens, following the PEP 503 normalization
// rules used by PyPI.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// repoURLKeys are the project-URL labels most likely to point at the source
// repository, in precedence order.
var repoURLKeys = []string{"Source", "Repository", "Code", "Homepage", "Download", "Source Code"}

// ExtractRepoURL finds a repository owner and name from a package's project
// URLs. It checks the well-known keys in precedence order, then every
// remaining URL, then the homepage. The re parameter must capture owner
// (group 1) and repo name (group 2).
//
// Returns ok=false when nothing matches. Packages without a recognizable
// repository URL are an ordinary condition, not an error; callers skip
// repository enrichment for them.
func ExtractRepoURL(re *regexp.Regexp, urls map[string]string, homepage string) (owner, repo string, ok bool) {
	match := func(u string) bool {
		if strings.Contains(u, "/sponsors/") {
			return false
		}
		if m := re.FindStringSubmatch(u); len(m) >= 3 {
			owner = m[1]
			repo = strings.TrimSuffix(m[2], ".git")
			ok = true
			return true
		}
		return false
	}

	for _, key := range repoURLKeys {
		if u, exists := urls[key]; exists && match(u) {
			return
		}
	}
	for _, u := range urls {
		if match(u) {
			return
		}
	}
	if homepage != "" {
		match(homepage)
	}
	return
}
