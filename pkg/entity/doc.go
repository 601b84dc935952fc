// Package entity turns collected form data into Wikibase entity patches.
//
// A Patch carries labels, descriptions and the new or changed statements of
// every property the form covers. Stored statements the form carries
// unchanged are left out so the wiki keeps them as they are. Statements the
// form dropped are listed in Patch.Remove; the submit client deletes them
// after the edit is applied.
package entity
