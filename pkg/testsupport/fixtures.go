package testsupport

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MustLoadJSON decodes a JSON fixture into out.
func MustLoadJSON(t *testing.T, path string, out any) {
	t.Helper()

	if err := LoadJSON(path, out); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
}

// LoadJSON reads a JSON fixture into out, returning an error for callers
// managing setup outside of *testing.T.
func LoadJSON(path string, out any) error {
	if path == "" {
		return errors.New("testsupport: fixture path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("testsupport: read fixture: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("testsupport: unmarshal fixture: %w", err)
	}
	return nil
}

// UpdateGoldensEnv names the variable that makes AssertGolden rewrite its
// golden file from the value under test.
const UpdateGoldensEnv = "UPDATE_GOLDENS"

// AssertGolden compares got with the JSON golden file at path. With
// UPDATE_GOLDENS=1 the file is rewritten instead.
func AssertGolden[T any](t *testing.T, path string, got T) {
	t.Helper()

	if os.Getenv(UpdateGoldensEnv) == "1" {
		data, err := json.MarshalIndent(got, "", "  ")
		if err != nil {
			t.Fatalf("marshal golden: %v", err)
		}
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		return
	}

	var want T
	MustLoadJSON(t, path, &want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("%s mismatch (-want +got):\n%s", path, diff)
	}
}
