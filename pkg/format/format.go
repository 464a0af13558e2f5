// Package format decodes the FORM/chunk data container a shipped
// GameMaker: Studio 1.x title ships as its single data file. The reader
// walks the chunk sequence once and hands each tag to a typed parser;
// cross-reference resolution between chunks happens one layer up, in
// package assets.
package format

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// requiredTags must all be present for a container to be usable.
var requiredTags = []string{
	"GEN8", "STRG", "TXTR", "TPAG", "SPRT", "BGND",
	"OBJT", "ROOM", "CODE", "VARI", "FUNC", "SCPT", "FONT", "PATH",
}

// SupportedBytecodeVersion is the only bytecode version this runtime
// re-executes; any other value in GEN8 is a LoadError.
const SupportedBytecodeVersion = 16

// Container holds every decoded chunk of one data file. Fields are
// populated by the per-tag parsers in chunks.go and are immutable once
// Read returns.
type Container struct {
	Game *GameInfo
	Opts *Options

	Strings []string
	Texture []TexturePage
	Regions []TextureRegion
	Sprites []Sprite
	Backgrounds []Background
	Objects []Object
	Rooms   []Room
	Code    []CodeEntry
	Vars    []Symbol
	Funcs   []Symbol
	Scripts []Script
	Fonts   []Font
	Paths   []Path

	// CodeBlob is the single contiguous bytecode stream; each CodeEntry
	// indexes into it with (Offset, Length).
	CodeBlob []byte

	// stringTable resolves the file-offset addressing mode (§3): GEN8,
	// SPRT, OBJT and friends reference names by offset into STRG rather
	// than by the Strings slice's table index.
	stringTable map[uint32]string
}

// rawChunk is one {tag, payload} record read from the FORM sequence,
// before any typed decoding.
type rawChunk struct {
	tag     string
	payload []byte
}

// Read parses a full data container from r. It performs exactly one
// pass over the byte stream; typed decoding of each chunk happens
// immediately as that chunk is encountered, deferring nothing except
// cross-chunk reference resolution (package assets).
func Read(r io.Reader) (*Container, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading container: %w", err)
	}
	return ReadBytes(data)
}

// ReadBytes parses a full data container already resident in memory.
func ReadBytes(data []byte) (*Container, error) {
	if len(data) < 8 || string(data[0:4]) != "FORM" {
		return nil, &LoadError{Reason: "missing FORM header"}
	}
	formLen := binary.LittleEndian.Uint32(data[4:8])
	body := data[8:]
	if uint32(len(body)) < formLen {
		return nil, &LoadError{Reason: "truncated FORM payload"}
	}
	body = body[:formLen]

	chunks, err := splitChunks(body)
	if err != nil {
		return nil, err
	}

	c := &Container{}
	byTag := make(map[string][]rawChunk, len(chunks))
	for _, ch := range chunks {
		byTag[ch.tag] = append(byTag[ch.tag], ch)
	}

	for _, tag := range requiredTags {
		if _, ok := byTag[tag]; !ok {
			return nil, &LoadError{Tag: tag, Reason: "required chunk missing"}
		}
	}

	if err := decodeSTRG(c, first(byTag, "STRG")); err != nil {
		return nil, err
	}
	if err := decodeGEN8(c, first(byTag, "GEN8")); err != nil {
		return nil, err
	}
	if c.Game.BytecodeVersion != SupportedBytecodeVersion {
		return nil, newLoadError("GEN8", "unsupported bytecode version %d (want %d)",
			c.Game.BytecodeVersion, SupportedBytecodeVersion)
	}
	if err := decodeOPTN(c, first(byTag, "OPTN")); err != nil {
		return nil, err
	}
	if err := decodeTXTR(c, first(byTag, "TXTR")); err != nil {
		return nil, err
	}
	if err := decodeTPAG(c, first(byTag, "TPAG")); err != nil {
		return nil, err
	}
	if err := decodeSPRT(c, first(byTag, "SPRT")); err != nil {
		return nil, err
	}
	if err := decodeBGND(c, first(byTag, "BGND")); err != nil {
		return nil, err
	}
	if err := decodeFONT(c, first(byTag, "FONT")); err != nil {
		return nil, err
	}
	if err := decodePATH(c, first(byTag, "PATH")); err != nil {
		return nil, err
	}
	if err := decodeCODE(c, first(byTag, "CODE")); err != nil {
		return nil, err
	}
	if err := decodeVARI(c, first(byTag, "VARI")); err != nil {
		return nil, err
	}
	if err := decodeFUNC(c, first(byTag, "FUNC")); err != nil {
		return nil, err
	}
	if err := decodeSCPT(c, first(byTag, "SCPT")); err != nil {
		return nil, err
	}
	if err := decodeOBJT(c, first(byTag, "OBJT")); err != nil {
		return nil, err
	}
	if err := decodeROOM(c, first(byTag, "ROOM")); err != nil {
		return nil, err
	}

	return c, nil
}

func first(byTag map[string][]rawChunk, tag string) []byte {
	chs := byTag[tag]
	if len(chs) == 0 {
		return nil
	}
	return chs[0].payload
}

// splitChunks walks {tag[4], len u32 LE, payload[len]} records until the
// body is exhausted. A header that claims more payload than remains in
// body is a truncated-chunk LoadError.
func splitChunks(body []byte) ([]rawChunk, error) {
	var chunks []rawChunk
	off := 0
	for off < len(body) {
		if off+8 > len(body) {
			return nil, &LoadError{Reason: "truncated chunk header"}
		}
		tag := string(body[off : off+4])
		length := binary.LittleEndian.Uint32(body[off+4 : off+8])
		start := off + 8
		end := start + int(length)
		if end > len(body) {
			return nil, &LoadError{Tag: tag, Reason: "chunk length overruns container"}
		}
		chunks = append(chunks, rawChunk{tag: tag, payload: body[start:end]})
		off = end
	}
	return chunks, nil
}

// --- small shared binary helpers used by chunks.go ---

func u32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off : off+4]) }
func i32(b []byte, off int) int32  { return int32(u32(b, off)) }
func f64(b []byte, off int) float64 {
	bits := binary.LittleEndian.Uint64(b[off : off+8])
	return math.Float64frombits(bits)
}
