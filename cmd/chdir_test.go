package cmd

import (
	"os"
	"testing"
)

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup (equivalent to testing.T.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
