// Package gridindex resolves a coordinate to the Grid_ID of the cell polygon
// containing it.
//
// Cells are read once from the first existing source among GeoJSON,
// GeoParquet and ESRI Shapefile. Polygon bounding boxes go into an R-tree; a
// lookup filters candidates by box, then tests exact containment in source
// order, so when cells overlap the earliest one wins. Points on a cell edge
// count as inside.
package gridindex
