// Package export writes packed sheets and their coordinate maps.
//
// A build produces two files: the sheet image and a map giving each
// sprite's rectangle on it. Both are chosen by file extension.
//
// # Image formats
//
// png (default), jpg/jpeg, bmp, gif and tif/tiff, encoded with
// github.com/disintegration/imaging. Only png, gif and tif keep
// transparency.
//
// # Map formats
//
// txt, one sprite per line, sorted by name:
//
//	coin = 32 0 16 16
//	hero = 0 0 32 48
//
// xml, an XNA content dictionary loadable with
// Content.Load<Dictionary<string, Rectangle>>:
//
//	<?xml version="1.0" encoding="utf-8" ?>
//	<XnaContent>
//	<Asset Type="System.Collections.Generic.Dictionary[System.String, Microsoft.Xna.Framework.Rectangle]">
//	<Item><Key>coin</Key><Value>32 0 16 16</Value></Item>
//	</Asset>
//	</XnaContent>
//
// json, the [Atlas] document itself:
//
//	{
//	  "image": "atlas.png",
//	  "width": 48,
//	  "height": 48,
//	  "sprites": [
//	    {"name": "coin", "x": 32, "y": 0, "width": 16, "height": 16}
//	  ]
//	}
//
// Every map format can be read back with [LoadMap]. txt and xml do not
// record the sheet size, so it is recomputed as the sprites' bounding box.
package export
