package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	defer func(v, c string) { Version, Commit = v, c }(Version, Commit)
	Version, Commit = "v1.2.3", "abc123"

	s := String()
	for _, want := range []string{"version: v1.2.3", "commit: abc123", "go: go"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if !strings.HasPrefix(Template(), "{{.Name}} version: v1.2.3") {
		t.Errorf("Template() = %q", Template())
	}
}
