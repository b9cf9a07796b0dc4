package datasets

import (
	"testing"

	"github.com/spf13/afero"
)

func TestCloudFilename(t *testing.T) {
	cases := map[string]string{
		"images/clouds/k/0_10.jpg":   "0_10.jpg",
		"peru_clouds_dir/12_345.png": "12_345.jpg",
		"short":                      ".jpg",
	}
	for entry, want := range cases {
		if got := CloudFilename(entry); got != want {
			t.Fatalf("CloudFilename(%q) = %q, want %q", entry, got, want)
		}
	}
}

func TestLoadCloudListAndRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := CloudListPath("/data", Kenya)
	writeFile(t, fs, path, "images/clouds/k/0_100.tif\n\nimages/clouds/k/2_102.tif extra\n")

	clouds, err := LoadCloudList(fs, path)
	if err != nil {
		t.Fatalf("LoadCloudList failed: %v", err)
	}
	if len(clouds) != 2 {
		t.Fatalf("expected 2 cloudy files, got %d", len(clouds))
	}

	rows := rowsOf(4, "0", "1")
	kept := RemoveClouds(rows, clouds)
	if len(kept) != 2 {
		t.Fatalf("expected 2 rows after cloud removal, got %d", len(kept))
	}
	for _, r := range kept {
		if r.Filename == "0_100.jpg" || r.Filename == "2_102.jpg" {
			t.Fatalf("cloudy row %s was kept", r.Filename)
		}
	}

	if _, err := LoadCloudList(fs, "/data/missing.txt"); err == nil {
		t.Fatalf("expected error for missing cloud list")
	}
}
