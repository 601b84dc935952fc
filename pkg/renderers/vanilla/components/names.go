package components

// Canonical component names used by the vanilla renderer and default registry.
const (
	NameInput       = "input"
	NameTextarea    = "textarea"
	NameSelect      = "select"
	NameCoordinates = "coordinates"
	NameItemInput   = "item-input"
	NameGroup       = "group"
)
