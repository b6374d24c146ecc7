package assets

import (
	"fmt"
	"io/fs"
	"sort"
)

// TypeSummary aggregates files sharing a content type.
type TypeSummary struct {
	ContentType string `json:"content_type"`
	Files       int    `json:"files"`
	Bytes       int64  `json:"bytes"`
}

// Inventory describes a bundle on disk.
type Inventory struct {
	Root         string        `json:"root"`
	Entry        string        `json:"entry"`
	EntryPresent bool          `json:"entry_present"`
	Files        int           `json:"files"`
	Bytes        int64         `json:"bytes"`
	Types        []TypeSummary `json:"types"`
}

// Scan walks fsys and summarises regular files by content type.
func Scan(fsys fs.FS, root, entry string) (*Inventory, error) {
	inv := &Inventory{Root: root, Entry: entry}
	byType := make(map[string]*TypeSummary)

	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		ct := ContentType(name)
		summary, ok := byType[ct]
		if !ok {
			summary = &TypeSummary{ContentType: ct}
			byType[ct] = summary
		}
		summary.Files++
		summary.Bytes += info.Size()

		inv.Files++
		inv.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan asset root: %w", err)
	}

	// Stat follows symlinks that stay inside the root, matching what is served.
	if info, err := fs.Stat(fsys, entry); err == nil && info.Mode().IsRegular() {
		inv.EntryPresent = true
	}

	inv.Types = make([]TypeSummary, 0, len(byType))
	for _, summary := range byType {
		inv.Types = append(inv.Types, *summary)
	}
	sort.Slice(inv.Types, func(i, j int) bool {
		return inv.Types[i].ContentType < inv.Types[j].ContentType
	})

	return inv, nil
}
