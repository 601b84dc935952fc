package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-wikiform/pkg/render"
)

func TestMergeAndSortHiddenFields(t *testing.T) {
	base := map[string]string{
		" existing ": "keep",
		"":           "ignored",
	}

	merged := render.MergeHiddenFields(base,
		render.HiddenField{Name: "_csrf", Value: "token123"},
		render.SessionField("5f0c"),
		render.HiddenField{Name: "  ", Value: "skip"},
		render.HiddenField{Name: "retries", Value: "1"},
		render.HiddenField{Name: "retries", Value: "2"},
	)

	wantMerged := map[string]string{
		"existing": "keep",
		"_csrf":    "token123",
		"_session": "5f0c",
		"retries":  "2",
	}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	sorted := render.SortedHiddenFields(merged)
	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "_session", Value: "5f0c"},
		{Name: "existing", Value: "keep"},
		{Name: "retries", Value: "2"},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeHiddenFields_Empty(t *testing.T) {
	if got := render.MergeHiddenFields(nil); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
	if got := render.SortedHiddenFields(map[string]string{" ": "x"}); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}
