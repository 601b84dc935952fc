package orchestrator

import (
	"fmt"

	"github.com/goliatone/go-wikiform/pkg/itemdata"
	"github.com/goliatone/go-wikiform/pkg/schema"
)

// FormSession is everything one open form needs: how it was opened, the
// schema it was built from and, in edit mode, the item's current data.
// Sessions are plain values owned by the caller.
type FormSession struct {
	Mode       schema.Mode        `json:"mode"`
	EntityType string             `json:"entityType"`
	ExemplarID string             `json:"exemplarId"`
	ItemID     string             `json:"itemId,omitempty"`
	TypeValue  string             `json:"typeValue"`
	TypeLabel  string             `json:"typeLabel,omitempty"`
	Schema     schema.Schema      `json:"schema"`
	Snapshot   *itemdata.Snapshot `json:"snapshot,omitempty"`
}

// Stages reported by GenerationError.
const (
	StageConfig     = "config"
	StageType       = "type"
	StageExemplar   = "exemplar"
	StageProperties = "properties"
	StageItemData   = "item-data"
	StageSchema     = "schema"
)

// GenerationError is a fatal discovery failure. The form cannot be shown;
// callers typically offer a retry with a forced refresh.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("orchestrator: %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &GenerationError{Stage: stage, Err: err}
}
