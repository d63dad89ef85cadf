// Package sprite finds sprite image files and reads their dimensions.
//
// [Collect] expands files and directories into an ordered, duplicate-free
// list of image paths. [MeasureAll] decodes only the image headers, in
// parallel, and returns one [Sprite] per path, named after the file without
// its extension.
//
// PNG, JPEG, GIF, BMP, TIFF and WebP headers are understood.
package sprite
