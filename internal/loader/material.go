package loader

import (
	"os"
	"path/filepath"
	"strings"
)

// MatchMaterialFile returns the entry of names that is the material library
// for objName: the same base name with a ".mtl" extension, compared
// case-insensitively.
func MatchMaterialFile(objName string, names []string) (string, bool) {
	base := objName
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".obj") {
		base = strings.TrimSuffix(base, ext)
	}
	want := strings.ToLower(base + ".mtl")
	for _, n := range names {
		if strings.ToLower(n) == want {
			return n, true
		}
	}
	return "", false
}

// FindMaterialFile looks for the sibling material library of a local OBJ
// file.
func FindMaterialFile(objPath string) (string, bool) {
	dir := filepath.Dir(objPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	name, ok := MatchMaterialFile(filepath.Base(objPath), names)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, name), true
}
