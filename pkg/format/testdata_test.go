package format

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"math"
)

// chunkBuilder assembles a FORM container in memory for tests, mirroring
// the §6 framing rules byte for byte.
type chunkBuilder struct {
	chunks [][]byte
}

func (b *chunkBuilder) add(tag string, payload []byte) {
	var buf bytes.Buffer
	buf.WriteString(tag)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	buf.Write(lenBuf[:])
	buf.Write(payload)
	b.chunks = append(b.chunks, buf.Bytes())
}

func (b *chunkBuilder) build() []byte {
	var body bytes.Buffer
	for _, c := range b.chunks {
		body.Write(c)
	}
	var out bytes.Buffer
	out.WriteString("FORM")
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(body.Len()))
	out.Write(lenBuf[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putI32(buf *bytes.Buffer, v int32) { putU32(buf, uint32(v)) }

func putF64(buf *bytes.Buffer, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	buf.Write(b[:])
}

// buildSTRG returns the STRG payload and the file-offset of each string,
// in the order the strings were given.
func buildSTRG(strs []string) ([]byte, []uint32) {
	var table bytes.Buffer
	offsets := make([]uint32, len(strs))

	// Per §6, each string record is itself length-prefixed (u32 LE) so
	// that an offset into the record lands on its length field.
	var records bytes.Buffer
	headerLen := 4 + 4*len(strs)
	for i, s := range strs {
		offsets[i] = uint32(headerLen + records.Len())
		putU32(&records, uint32(len(s)))
		records.WriteString(s)
	}

	putU32(&table, uint32(len(strs)))
	for _, off := range offsets {
		putU32(&table, off)
	}
	table.Write(records.Bytes())
	return table.Bytes(), offsets
}

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
