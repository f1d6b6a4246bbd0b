package gh

import "strings"

// Ref identifies a remote repository as an owner/name pair.
type Ref struct {
	Owner string
	Name  string
}

func (r Ref) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRef parses an "owner/name" identifier. Refs are validated eagerly so
// a bad identifier fails here instead of as a guaranteed-404 remote call.
func ParseRef(s string) (Ref, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Ref{}, &MalformedRefError{Input: s}
	}
	return Ref{Owner: owner, Name: name}, nil
}

// ParseRefs parses a list of "owner/name" identifiers, failing on the first
// malformed entry.
func ParseRefs(ss []string) ([]Ref, error) {
	refs := make([]Ref, 0, len(ss))
	for _, s := range ss {
		ref, err := ParseRef(s)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
