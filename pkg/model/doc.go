// Package model defines the declarative form description renderers consume
// and builds it from an inferred schema plus, in edit mode, the item's
// current statements. Properties that carry qualifiers become repeatable
// groups whose entries move between EntryEmpty and EntryQualifiersRevealed
// as their main value changes; Transition, Group.Select, Group.Add and
// Group.Remove implement that state machine without touching sibling
// entries. Builders reside in internal/model but return the types defined
// here.
package model
