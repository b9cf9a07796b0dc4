package datasets

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// cloudPrefixLen is the length of the directory prefix on every cloud list
// entry.
const cloudPrefixLen = 16

// CloudFilename turns a cloud list entry into the image file name it
// refers to: the first 16 and the last 4 characters are dropped and ".jpg"
// is appended.
func CloudFilename(entry string) string {
	r := []rune(entry)
	if len(r) > cloudPrefixLen {
		r = r[cloudPrefixLen:]
	} else {
		r = nil
	}
	if len(r) > 4 {
		r = r[:len(r)-4]
	} else {
		r = nil
	}
	return string(r) + "." + DefaultExt
}

// LoadCloudList reads a cloud list file. Each non-empty line holds one
// entry (its first space separated token).
func LoadCloudList(fs afero.Fs, path string) (map[string]struct{}, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cloud list %s: %w", path, err)
	}
	defer file.Close()

	clouds := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		clouds[CloudFilename(fields[0])] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cloud list %s: %w", path, err)
	}
	return clouds, nil
}

// RemoveClouds returns the rows whose file name is not in clouds.
func RemoveClouds(rows []Row, clouds map[string]struct{}) []Row {
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if _, cloudy := clouds[r.Filename]; cloudy {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
