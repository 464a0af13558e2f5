package format

import (
	"bytes"
	"testing"
)

// buildMinimalContainer assembles the smallest FORM container that
// satisfies every required tag, with one of each kind of asset.
func buildMinimalContainer(t *testing.T) []byte {
	t.Helper()
	strTable, offs := buildSTRG([]string{"game_name", "obj_player", "spr_player", "room_start", "scr_init", "path1", "font1"})
	nameOff, objOff, sprOff, roomOff, scrOff, pathOff, fontOff := offs[0], offs[1], offs[2], offs[3], offs[4], offs[5], offs[6]

	b := &chunkBuilder{}
	b.add("STRG", strTable)

	var gen8 bytes.Buffer
	putU32(&gen8, nameOff)
	putU32(&gen8, SupportedBytecodeVersion)
	putI32(&gen8, 640)
	putI32(&gen8, 480)
	putU32(&gen8, 1) // room count
	putI32(&gen8, 0) // room index 0
	b.add("GEN8", gen8.Bytes())

	var optn bytes.Buffer
	putI32(&optn, 0)
	putI32(&optn, 32)
	putU32(&optn, 0)
	b.add("OPTN", optn.Bytes())

	png := tinyPNG()
	var txtr bytes.Buffer
	putU32(&txtr, 1)
	putI32(&txtr, 2)
	putI32(&txtr, 2)
	putU32(&txtr, uint32(len(png)))
	txtr.Write(png)
	b.add("TXTR", txtr.Bytes())

	var tpag bytes.Buffer
	putU32(&tpag, 1)
	for i := 0; i < 11; i++ {
		putI32(&tpag, 2)
	}
	b.add("TPAG", tpag.Bytes())

	var sprt bytes.Buffer
	putU32(&sprt, 1)
	putU32(&sprt, sprOff)
	putI32(&sprt, 1) // ox
	putI32(&sprt, 1) // oy
	putI32(&sprt, 0)
	putI32(&sprt, 0)
	putI32(&sprt, 2)
	putI32(&sprt, 2)
	putI32(&sprt, 0) // mask
	putU32(&sprt, 1) // frame count
	putI32(&sprt, 0) // frame[0] = TPAG 0
	b.add("SPRT", sprt.Bytes())

	var bgnd bytes.Buffer
	putU32(&bgnd, 0)
	b.add("BGND", bgnd.Bytes())

	var font bytes.Buffer
	putU32(&font, 1)
	putU32(&font, fontOff)
	putI32(&font, 0)
	putU32(&font, 0) // glyph count
	b.add("FONT", font.Bytes())

	var path bytes.Buffer
	putU32(&path, 1)
	putU32(&path, pathOff)
	putI32(&path, 0)
	putI32(&path, 1)
	putU32(&path, 0) // point count
	b.add("PATH", path.Bytes())

	// CODE: one entry, empty bytecode span.
	var code bytes.Buffer
	putU32(&code, 1)
	putU32(&code, scrOff)
	putI32(&code, 0)
	putI32(&code, 0)
	putI32(&code, 0)
	putI32(&code, 0)
	putU32(&code, 0) // blob length
	b.add("CODE", code.Bytes())

	var vari bytes.Buffer
	putU32(&vari, 0)
	b.add("VARI", vari.Bytes())

	var fn bytes.Buffer
	putU32(&fn, 0)
	b.add("FUNC", fn.Bytes())

	var scpt bytes.Buffer
	putU32(&scpt, 1)
	putU32(&scpt, scrOff)
	putI32(&scpt, 0)
	b.add("SCPT", scpt.Bytes())

	var objt bytes.Buffer
	putU32(&objt, 1)
	putU32(&objt, objOff)
	putI32(&objt, 0)  // sprite index
	putU32(&objt, 1)  // flags: visible
	putI32(&objt, -1) // parent
	putI32(&objt, 0)  // depth
	putU32(&objt, 0)  // event count
	b.add("OBJT", objt.Bytes())

	var room bytes.Buffer
	putU32(&room, 1)
	putU32(&room, roomOff)
	putI32(&room, 640)
	putI32(&room, 480)
	putU32(&room, 0) // bg color
	putI32(&room, 30)
	putI32(&room, -1) // creation code
	putU32(&room, 0)  // view count
	putU32(&room, 0)  // instance count
	b.add("ROOM", room.Bytes())

	return b.build()
}

func TestReadMinimalContainer(t *testing.T) {
	data := buildMinimalContainer(t)
	c, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	if c.Game.Name != "game_name" {
		t.Errorf("game name = %q", c.Game.Name)
	}
	if c.Game.BytecodeVersion != SupportedBytecodeVersion {
		t.Errorf("bytecode version = %d", c.Game.BytecodeVersion)
	}
	if len(c.Rooms) != 1 || c.Rooms[0].Name != "room_start" {
		t.Fatalf("rooms = %+v", c.Rooms)
	}
	if len(c.Objects) != 1 || c.Objects[0].Name != "obj_player" || !c.Objects[0].Visible {
		t.Fatalf("objects = %+v", c.Objects)
	}
	if len(c.Sprites) != 1 || c.Sprites[0].Name != "spr_player" || len(c.Sprites[0].Frames) != 1 {
		t.Fatalf("sprites = %+v", c.Sprites)
	}
	if len(c.Texture) != 1 || c.Texture[0].Width != 2 {
		t.Fatalf("texture pages = %+v", c.Texture)
	}
	if len(c.Scripts) != 1 || c.Scripts[0].Name != "scr_init" {
		t.Fatalf("scripts = %+v", c.Scripts)
	}
}

func TestReadRejectsMissingForm(t *testing.T) {
	_, err := ReadBytes([]byte("NOPE"))
	if err == nil {
		t.Fatalf("expected error for missing FORM header")
	}
}

func TestReadRejectsWrongBytecodeVersion(t *testing.T) {
	// Patch the GEN8 bytecode-version field: the container starts with
	// STRG then GEN8, so GEN8's payload sits right after the STRG chunk.
	// Easiest to just rebuild with a bad version stamp.
	strTable, _ := buildSTRG([]string{"x"})
	b := &chunkBuilder{}
	b.add("STRG", strTable)
	var gen8 bytes.Buffer
	putU32(&gen8, 0)
	putU32(&gen8, 15) // unsupported
	putI32(&gen8, 640)
	putI32(&gen8, 480)
	putU32(&gen8, 0)
	b.add("GEN8", gen8.Bytes())
	// The remaining required chunks are irrelevant since version check
	// aborts before they'd be consulted, but Read still requires their
	// presence, so supply empty ones.
	for _, tag := range []string{"TXTR", "TPAG", "SPRT", "BGND", "OBJT", "ROOM", "CODE", "VARI", "FUNC", "SCPT", "FONT", "PATH"} {
		var empty bytes.Buffer
		putU32(&empty, 0)
		if tag == "CODE" {
			empty.Reset()
			putU32(&empty, 0)
			putU32(&empty, 0)
		}
		b.add(tag, empty.Bytes())
	}
	_, err := ReadBytes(b.build())
	if err == nil {
		t.Fatalf("expected LoadError for unsupported bytecode version")
	}
	if _, ok := err.(*LoadError); !ok {
		t.Fatalf("expected *LoadError, got %T", err)
	}
}

func TestReadRejectsTruncatedChunk(t *testing.T) {
	data := buildMinimalContainer(t)
	truncated := data[:len(data)-10]
	_, err := ReadBytes(truncated)
	if err == nil {
		t.Fatalf("expected error for truncated container")
	}
}
