package model

import internalmodel "github.com/goliatone/go-wikiform/internal/model"

type (
	FormDescription = internalmodel.FormDescription
	Section         = internalmodel.Section
	Field           = internalmodel.Field
	Option          = internalmodel.Option
	Group           = internalmodel.Group
	GroupEntry      = internalmodel.GroupEntry
	Qualifier       = internalmodel.Qualifier
	EntryState      = internalmodel.EntryState
)

const (
	SectionBasic      = internalmodel.SectionBasic
	SectionProperties = internalmodel.SectionProperties

	EntryEmpty              = internalmodel.EntryEmpty
	EntryQualifiersRevealed = internalmodel.EntryQualifiersRevealed
)

// Form path helpers shared by renderers and the collector.
var (
	ValuePath     = internalmodel.ValuePath
	QualifierPath = internalmodel.QualifierPath
	StatementPath = internalmodel.StatementPath
	EntryPath     = internalmodel.EntryPath
	LatPath       = internalmodel.LatPath
	LonPath       = internalmodel.LonPath

	Transition      = internalmodel.Transition
	InitialValue    = internalmodel.InitialValue
	JoinCoordinate  = internalmodel.JoinCoordinate
	SplitCoordinate = internalmodel.SplitCoordinate
	DefaultLabeler  = internalmodel.DefaultLabeler
)
