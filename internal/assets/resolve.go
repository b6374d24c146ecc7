package assets

import (
	"path"
	"strings"
)

// Outcome classifies how a request path was mapped onto the asset tree.
type Outcome string

const (
	OutcomeRoot      Outcome = "root"
	OutcomeAsset     Outcome = "asset"
	OutcomeFallback  Outcome = "fallback"
	OutcomeTraversal Outcome = "traversal"
)

// Resolution is the file chosen for a request path.
type Resolution struct {
	Name        string
	ContentType string
	Outcome     Outcome
	// Cause explains a fallback or traversal; nil otherwise.
	Cause error
}

// Resolver maps request paths to files, handing unknown routes the entry
// document so the client-side router can take over.
type Resolver struct {
	store Store
	entry string
}

func NewResolver(store Store, entry string) *Resolver {
	return &Resolver{store: store, entry: entry}
}

// Entry returns the entry document name.
func (r *Resolver) Entry() string {
	return r.entry
}

func (r *Resolver) Resolve(urlPath string) Resolution {
	if urlPath == "/" || urlPath == "" {
		return r.shell(OutcomeRoot, nil)
	}

	name, err := CleanPath(urlPath)
	if err != nil {
		return r.shell(OutcomeTraversal, err)
	}
	if name == "" {
		return r.shell(OutcomeRoot, nil)
	}

	if _, err := StatRegular(r.store, name); err != nil {
		return r.shell(OutcomeFallback, err)
	}

	return Resolution{
		Name:        name,
		ContentType: ContentType(name),
		Outcome:     OutcomeAsset,
	}
}

func (r *Resolver) shell(outcome Outcome, cause error) Resolution {
	return Resolution{
		Name:        r.entry,
		ContentType: ContentType(r.entry),
		Outcome:     outcome,
		Cause:       cause,
	}
}

// CleanPath turns an untrusted URL path into a root-relative name. Paths whose
// ".." segments would climb above the root are rejected with ErrTraversal
// instead of being silently clamped.
func CleanPath(urlPath string) (string, error) {
	if strings.ContainsRune(urlPath, 0) {
		return "", ErrTraversal
	}

	depth := 0
	for _, segment := range strings.Split(urlPath, "/") {
		switch segment {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", ErrTraversal
			}
		default:
			depth++
		}
	}

	return strings.TrimPrefix(path.Clean("/"+urlPath), "/"), nil
}
