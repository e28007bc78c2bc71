// Package packstream implements Neo4j's PackStream binary value codec:
// the marker-tagged encoding used to serialize Bolt message fields on
// the wire (null, bool, int, float, string, list, map and struct).
package packstream

// Marker bytes. The tiny-string/tiny-list/tiny-map/tiny-struct markers
// (0x80-0xBF) are listed by their base value only; their low nibble
// carries the size, handled directly in the packer/decoder.
const (
	markerTinyStringBase = 0x80 // 0x80-0x8F: tiny string, size in low nibble
	markerTinyListBase   = 0x90 // 0x90-0x9F: tiny list
	markerTinyMapBase    = 0xA0 // 0xA0-0xAF: tiny map
	markerTinyStructBase = 0xB0 // 0xB0-0xBF: tiny struct

	markerNull    = 0xC0
	markerFloat64 = 0xC1
	markerFalse   = 0xC2
	markerTrue    = 0xC3

	markerInt8  = 0xC8
	markerInt16 = 0xC9
	markerInt32 = 0xCA
	markerInt64 = 0xCB

	markerBytes8  = 0xCC
	markerBytes16 = 0xCD
	markerBytes32 = 0xCE

	markerString8  = 0xD0
	markerString16 = 0xD1
	markerString32 = 0xD2

	markerList8  = 0xD4
	markerList16 = 0xD5
	markerList32 = 0xD6

	markerMap8  = 0xD8
	markerMap16 = 0xD9
	markerMap32 = 0xDA

	markerStruct8  = 0xDC
	markerStruct16 = 0xDD

	// minTinyInt is the smallest value representable as a single
	// tiny-int marker byte: -16 in two's complement (0xF0).
	minTinyInt = -16
	maxTinyInt = 127
)
