// Package steg stores database content inside the pixels of a carrier image.
//
// The content is framed as
//
//	"SDB1" | length uint32 BE | payload
//
// and written bit by bit (most significant bit first) into the least
// significant bit of the red, green and blue channels, scanning pixels row
// by row. Alpha is never touched. An image of W×H pixels carries
// (W*H*3)/8 - 8 payload bytes.
//
// PNG and BMP carriers are supported; both are lossless, so the hidden bits
// survive a save. An image without the frame magic reads as empty content.
package steg
