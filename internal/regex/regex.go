package regex

import (
	"regexp"

	"github.com/thomas-vilte/materelease/internal/semver"
)

var (
	// VersionMarker matches the tool's own version bump commits.
	VersionMarker = regexp.MustCompile(`\bversion\b`)

	// Git and Repo patterns
	SSHRepo   = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+)\.git$`)
	HTTPSRepo = regexp.MustCompile(`https://([^/]+)/([^/]+)/(.+?)(?:\.git)?$`)
)

// TicketPattern finds ticket ids of one tracker project, e.g. HOST-123.
type TicketPattern struct {
	re *regexp.Regexp
}

// NewTicketPattern with an empty prefix matches nothing.
func NewTicketPattern(projectPrefix string) *TicketPattern {
	if projectPrefix == "" {
		return &TicketPattern{}
	}
	return &TicketPattern{
		re: regexp.MustCompile(`\b` + regexp.QuoteMeta(projectPrefix) + `-\d+\b`),
	}
}

// Find returns the first ticket id in message.
func (p *TicketPattern) Find(message string) (string, bool) {
	if p.re == nil {
		return "", false
	}
	id := p.re.FindString(message)
	return id, id != ""
}

// TagPattern recognizes release tags: <prefix><major>.<minor>.<patch>.
type TagPattern struct {
	prefix string
	re     *regexp.Regexp
}

func NewTagPattern(prefix string) *TagPattern {
	return &TagPattern{
		prefix: prefix,
		re:     regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+\.\d+\.\d+)$`),
	}
}

// Parse extracts the version embedded in a release tag name.
func (p *TagPattern) Parse(tagName string) (semver.Version, bool) {
	m := p.re.FindStringSubmatch(tagName)
	if m == nil {
		return semver.Version{}, false
	}
	v, err := semver.Parse(m[1])
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}

// Name formats the tag name for a version.
func (p *TagPattern) Name(v semver.Version) string {
	return p.prefix + v.String()
}
