package datasets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExt is the extension of the country image files.
const DefaultExt = "jpg"

// FormatFilename returns {id1}_{id2}.{ext}, or {id1}_{id2}_{suffix}.{ext}
// when suffix is not empty. An empty ext means DefaultExt.
func FormatFilename(id1, id2 int, suffix, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	if suffix == "" {
		return fmt.Sprintf("%d_%d.%s", id1, id2, ext)
	}
	return fmt.Sprintf("%d_%d_%s.%s", id1, id2, suffix, ext)
}

// ParseFilename reverses FormatFilename.
func ParseFilename(name string) (id1, id2 int, suffix, ext string, err error) {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return 0, 0, "", "", fmt.Errorf("filename %q has no extension", name)
	}
	stem, ext := name[:dot], name[dot+1:]

	parts := strings.SplitN(stem, "_", 3)
	if len(parts) < 2 {
		return 0, 0, "", "", fmt.Errorf("filename %q does not follow {id1}_{id2}[_{suffix}].{ext}", name)
	}
	if id1, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, "", "", fmt.Errorf("filename %q: invalid first id: %w", name, err)
	}
	if id2, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, "", "", fmt.Errorf("filename %q: invalid second id: %w", name, err)
	}
	if len(parts) == 3 {
		if parts[2] == "" {
			return 0, 0, "", "", fmt.Errorf("filename %q has an empty suffix", name)
		}
		suffix = parts[2]
	}
	return id1, id2, suffix, ext, nil
}

// ListFilenames returns the set of entry names in dir, whitespace trimmed.
func ListFilenames(fs afero.Fs, dir string) (map[string]struct{}, error) {
	names, err := readDirNames(fs, dir)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[strings.TrimSpace(name)] = struct{}{}
	}
	return set, nil
}

// readDirNames returns the sorted entry names of dir.
func readDirNames(fs afero.Fs, dir string) ([]string, error) {
	f, err := fs.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// FilesValid reports, for every sample, whether {index}_{id}.jpg exists in
// dir.
func FilesValid(fs afero.Fs, samples []Sample, dir string) ([]bool, error) {
	names, err := ListFilenames(fs, dir)
	if err != nil {
		return nil, err
	}
	valid := make([]bool, len(samples))
	for i, s := range samples {
		_, valid[i] = names[FormatFilename(s.Index, s.ID, "", "")]
	}
	return valid, nil
}

// resolveByTail matches every sample's "{id}.jpg" against directory
// entries of the form "{prefix}_{id}.jpg" and returns the full entry name,
// or "" when there is none. When a tail appears under several prefixes the
// last entry in sorted order wins.
func resolveByTail(fs afero.Fs, samples []Sample, dir string) ([]string, error) {
	names, err := readDirNames(fs, dir)
	if err != nil {
		return nil, err
	}
	byTail := make(map[string]string, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		_, tail, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		byTail[tail] = name
	}

	resolved := make([]string, len(samples))
	for i, s := range samples {
		_, tail, _ := strings.Cut(FormatFilename(s.Index, s.ID, "", ""), "_")
		resolved[i] = byTail[tail]
	}
	return resolved, nil
}
