package picture

import (
	"github.com/pixxearch/pixxearch/internal/db"
	"github.com/pixxearch/pixxearch/internal/domain/search/request"
)

// Index attribute names.
const (
	attrName         = "name"
	attrLabels       = "labels"
	attrObjects      = "objects"
	attrLabelsText   = "labels_text"
	attrObjectsText  = "objects_text"
	attrText         = "text"
	attrLandmarkName = "landmark_name"
	attrCreated      = "created"

	attrPicture = "picture"
	attrRed     = "red"
	attrGreen   = "green"
	attrBlue    = "blue"
)

// textAttrs maps request text fields to TEXT attributes.
var textAttrs = map[string]string{
	request.FieldLandmarkName: attrLandmarkName,
	request.FieldLabels:       attrLabelsText,
	request.FieldObjects:      attrObjectsText,
	request.FieldText:         attrText,
}

// tagAttrs maps request term fields to TAG attributes.
var tagAttrs = map[string]string{
	request.FieldLabels:  attrLabels,
	request.FieldObjects: attrObjects,
}

// colorAttrs maps nested color fields to attributes of the color index.
var colorAttrs = map[string]string{
	request.FieldRed:   attrRed,
	request.FieldGreen: attrGreen,
	request.FieldBlue:  attrBlue,
}

// sortAttrs maps request sort fields to SORTABLE attributes.
var sortAttrs = map[string]string{
	request.FieldCreated: attrCreated,
}

// buildPictureIndex defines the main index over picture documents.
// Labels and objects are indexed twice: as case-sensitive tags for exact
// facet filters, and as text for fuzzy matching.
func buildPictureIndex(k keyspace) *db.IndexDefinition {
	return db.NewIndex(k.pictureIndex()).
		OnJSON().
		Prefix(k.picturePrefix()).
		TagWithOpts("$.name", "", true).As(attrName).
		TagWithOpts("$.labels[*]", "", true).As(attrLabels).
		TagWithOpts("$.objects[*]", "", true).As(attrObjects).
		Text("$.labels[*]").As(attrLabelsText).
		Text("$.objects[*]").As(attrObjectsText).
		Text("$.text").As(attrText).
		Text("$.landmark.name").As(attrLandmarkName).
		Numeric("$.created_ms").As(attrCreated).Sortable().
		MustBuild()
}

// buildColorIndex defines the index over per-color child documents, so
// that channel ranges are evaluated inside a single color entry.
func buildColorIndex(k keyspace) *db.IndexDefinition {
	return db.NewIndex(k.colorIndex()).
		OnJSON().
		Prefix(k.colorPrefix()).
		TagWithOpts("$.picture", "", true).As(attrPicture).
		Numeric("$.red").As(attrRed).
		Numeric("$.green").As(attrGreen).
		Numeric("$.blue").As(attrBlue).
		MustBuild()
}
