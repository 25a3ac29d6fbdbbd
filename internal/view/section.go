package view

import "fmt"

// Section is one of the mutually exclusive top-level views. Exactly one is
// current at any time; Login is where unauthenticated navigation lands.
type Section int

const (
	SectionLogin Section = iota
	SectionDashboard
	SectionDocuments
	SectionChat
	SectionSearch
)

var sectionNames = map[Section]string{
	SectionLogin:     "login",
	SectionDashboard: "dashboard",
	SectionDocuments: "documents",
	SectionChat:      "chat",
	SectionSearch:    "search",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

// Protected reports whether entering the section requires authentication.
func (s Section) Protected() bool {
	return s != SectionLogin
}

// ParseSection maps a section name to its value. Used for the pending
// section handoff and the CLI's "open" argument.
func ParseSection(name string) (Section, error) {
	for s, n := range sectionNames {
		if n == name {
			return s, nil
		}
	}
	return SectionLogin, fmt.Errorf("unknown section %q", name)
}
