// Package schema infers a form schema for an entity type from an exemplar
// item. Builder turns the exemplar's properties into PropertyDescriptors,
// promoting item properties with known values to multiselects and recording
// which qualifiers apply to which main values. Discoverer performs the
// lookups that precede a build.
package schema
