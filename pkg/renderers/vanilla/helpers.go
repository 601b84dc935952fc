package vanilla

import (
	"github.com/goliatone/go-wikiform/pkg/model"
	"github.com/goliatone/go-wikiform/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

func componentLabelID(name string) string {
	controlID := components.ControlID(name)
	if controlID == "" {
		return ""
	}
	return controlID + "-label"
}

// errorPaths lists the form paths whose messages belong to field's chrome.
func errorPaths(field model.Field) []string {
	paths := []string{field.Name}
	switch field.Widget {
	case schema.KindCoordinates:
		paths = append(paths, model.LatPath(field.Name), model.LonPath(field.Name))
	case schema.KindMultiselect:
		if field.Group == nil {
			paths = append(paths, field.Name+".custom")
		}
	}
	return paths
}
