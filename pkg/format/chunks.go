package format

// Each decode* function owns the binary layout of exactly one chunk tag.
// Layouts mirror the §3/§6 field lists: a u32 LE count, followed by that
// many fixed records (or u32 LE offsets into the chunk's own payload for
// variable-length records, in the way STRG/SPRT/ROOM entries are laid
// out in the original format).

// GameInfo is the decoded GEN8 chunk: game identity, bytecode version,
// default window size, and the room load order (§4.1 supplement).
type GameInfo struct {
	Name            string
	BytecodeVersion uint32
	DefaultWidth    int32
	DefaultHeight   int32
	RoomOrder       []int32 // room indices, in load order
}

func decodeGEN8(c *Container, p []byte) error {
	if len(p) < 20 {
		return newLoadError("GEN8", "payload too short (%d bytes)", len(p))
	}
	nameOff := u32(p, 0)
	version := u32(p, 4)
	width := i32(p, 8)
	height := i32(p, 12)
	roomCount := u32(p, 16)
	off := 20
	rooms := make([]int32, 0, roomCount)
	for i := uint32(0); i < roomCount; i++ {
		if off+4 > len(p) {
			return newLoadError("GEN8", "room order table truncated")
		}
		rooms = append(rooms, i32(p, off))
		off += 4
	}
	c.Game = &GameInfo{
		Name:            c.stringTable[nameOff],
		BytecodeVersion: version,
		DefaultWidth:    width,
		DefaultHeight:   height,
		RoomOrder:       rooms,
	}
	return nil
}

// Options is the decoded OPTN chunk.
type Options struct {
	ScaleMode  int32
	ColorDepth int32
	WindowFlags uint32
}

func decodeOPTN(c *Container, p []byte) error {
	if len(p) < 12 {
		return newLoadError("OPTN", "payload too short (%d bytes)", len(p))
	}
	c.Opts = &Options{
		ScaleMode:   i32(p, 0),
		ColorDepth:  i32(p, 4),
		WindowFlags: u32(p, 8),
	}
	return nil
}

func decodeSTRG(c *Container, p []byte) error {
	if len(p) < 4 {
		return newLoadError("STRG", "payload too short")
	}
	count := u32(p, 0)
	strs := make([]string, 0, count)
	c.stringTable = make(map[uint32]string, count)
	off := 4
	for i := uint32(0); i < count; i++ {
		if off+4 > len(p) {
			return newLoadError("STRG", "offset table truncated")
		}
		strOff := u32(p, off)
		off += 4
		if int(strOff)+4 > len(p) {
			return newLoadError("STRG", "string %d offset out of range", i)
		}
		strLen := int(u32(p, int(strOff)))
		start := int(strOff) + 4
		end := start + strLen
		if end > len(p) {
			return newLoadError("STRG", "string %d length overruns payload", i)
		}
		s := string(p[start:end])
		strs = append(strs, s)
		c.stringTable[strOff] = s
	}
	c.Strings = strs
	return nil
}

// TexturePage is a decoded TXTR entry: the RGBA pixel buffer of one
// page. Upload to the GPU is lazy and owned by package renderer.
type TexturePage struct {
	Width, Height int
	RGBA          []byte // uploaded lazily; decoded eagerly here (§4.1)
}

func decodeTXTR(c *Container, p []byte) error {
	if len(p) < 4 {
		return newLoadError("TXTR", "payload too short")
	}
	count := u32(p, 0)
	off := 4
	pages := make([]TexturePage, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+12 > len(p) {
			return newLoadError("TXTR", "page %d header truncated", i)
		}
		w := int(i32(p, off))
		h := int(i32(p, off+4))
		pngLen := int(u32(p, off+8))
		off += 12
		if off+pngLen > len(p) {
			return newLoadError("TXTR", "page %d pixel data truncated", i)
		}
		rgba, err := decodePNGToRGBA(p[off : off+pngLen])
		if err != nil {
			return newLoadError("TXTR", "page %d: %v", i, err)
		}
		off += pngLen
		pages = append(pages, TexturePage{Width: w, Height: h, RGBA: rgba})
	}
	c.Texture = pages
	return nil
}

// TextureRegion is a decoded TPAG entry.
type TextureRegion struct {
	SrcX, SrcY, SrcW, SrcH         int32
	TargetX, TargetY, TargetW, TargetH int32
	DestW, DestH                   int32
	TextureIndex                   int32
}

func decodeTPAG(c *Container, p []byte) error {
	const recSize = 4 * 11
	count := u32(p, 0)
	off := 4
	regs := make([]TextureRegion, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+recSize > len(p) {
			return newLoadError("TPAG", "region %d truncated", i)
		}
		regs = append(regs, TextureRegion{
			SrcX: i32(p, off), SrcY: i32(p, off+4), SrcW: i32(p, off+8), SrcH: i32(p, off+12),
			TargetX: i32(p, off+16), TargetY: i32(p, off+20), TargetW: i32(p, off+24), TargetH: i32(p, off+28),
			DestW: i32(p, off+32), DestH: i32(p, off+36), TextureIndex: i32(p, off+40),
		})
		off += recSize
	}
	c.Regions = regs
	return nil
}

// Sprite is a decoded SPRT entry.
type Sprite struct {
	Name          string
	OriginX, OriginY int32
	BBoxLeft, BBoxTop, BBoxRight, BBoxBottom int32
	CollisionMask int32
	Frames        []int32 // TPAG indices
}

func decodeSPRT(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	sprites := make([]Sprite, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(p) {
			return newLoadError("SPRT", "sprite %d name offset truncated", i)
		}
		nameOff := u32(p, off)
		off += 4
		if off+28 > len(p) {
			return newLoadError("SPRT", "sprite %d header truncated", i)
		}
		ox, oy := i32(p, off), i32(p, off+4)
		left, top, right, bottom := i32(p, off+8), i32(p, off+12), i32(p, off+16), i32(p, off+20)
		mask := i32(p, off+24)
		off += 28
		if off+4 > len(p) {
			return newLoadError("SPRT", "sprite %d frame count truncated", i)
		}
		frameCount := u32(p, off)
		off += 4
		frames := make([]int32, 0, frameCount)
		for f := uint32(0); f < frameCount; f++ {
			if off+4 > len(p) {
				return newLoadError("SPRT", "sprite %d frame %d truncated", i, f)
			}
			frames = append(frames, i32(p, off))
			off += 4
		}
		sprites = append(sprites, Sprite{
			Name: c.stringTable[nameOff],
			OriginX: ox, OriginY: oy,
			BBoxLeft: left, BBoxTop: top, BBoxRight: right, BBoxBottom: bottom,
			CollisionMask: mask, Frames: frames,
		})
	}
	c.Sprites = sprites
	return nil
}

// Background is a decoded BGND entry.
type Background struct {
	Name          string
	TextureIndex  int32
	TileWidth     int32
	TileHeight    int32
}

func decodeBGND(c *Container, p []byte) error {
	const recSize = 16
	count := u32(p, 0)
	off := 4
	bgs := make([]Background, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+recSize > len(p) {
			return newLoadError("BGND", "background %d truncated", i)
		}
		bgs = append(bgs, Background{
			Name:         c.stringTable[u32(p, off)],
			TextureIndex: i32(p, off+4),
			TileWidth:    i32(p, off+8),
			TileHeight:   i32(p, off+12),
		})
		off += recSize
	}
	c.Backgrounds = bgs
	return nil
}

// Glyph is one entry of a FONT's code-point table.
type Glyph struct {
	CodePoint rune
	SrcX, SrcY, SrcW, SrcH int32
	OffsetX, ShiftX        int32
}

// Font is a decoded FONT entry.
type Font struct {
	Name          string
	TextureIndex  int32
	Glyphs        []Glyph
}

func decodeFONT(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	fonts := make([]Font, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+8 > len(p) {
			return newLoadError("FONT", "font %d header truncated", i)
		}
		nameOff := u32(p, off)
		texIdx := i32(p, off+4)
		off += 8
		if off+4 > len(p) {
			return newLoadError("FONT", "font %d glyph count truncated", i)
		}
		glyphCount := u32(p, off)
		off += 4
		glyphs := make([]Glyph, 0, glyphCount)
		for g := uint32(0); g < glyphCount; g++ {
			if off+28 > len(p) {
				return newLoadError("FONT", "font %d glyph %d truncated", i, g)
			}
			glyphs = append(glyphs, Glyph{
				CodePoint: rune(i32(p, off)),
				SrcX: i32(p, off+4), SrcY: i32(p, off+8), SrcW: i32(p, off+12), SrcH: i32(p, off+16),
				OffsetX: i32(p, off+20), ShiftX: i32(p, off+24),
			})
			off += 28
		}
		fonts = append(fonts, Font{Name: c.stringTable[nameOff], TextureIndex: texIdx, Glyphs: glyphs})
	}
	c.Fonts = fonts
	return nil
}

// Path is a decoded PATH entry: a polyline with an interpolation flag.
type Path struct {
	Name      string
	Closed    bool
	Precision int32
	Points    []PathPoint
}

// PathPoint is one control point of a Path.
type PathPoint struct {
	X, Y, Speed float64
}

func decodePATH(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	paths := make([]Path, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+12 > len(p) {
			return newLoadError("PATH", "path %d header truncated", i)
		}
		nameOff := u32(p, off)
		closed := i32(p, off+4) != 0
		precision := i32(p, off+8)
		off += 12
		if off+4 > len(p) {
			return newLoadError("PATH", "path %d point count truncated", i)
		}
		pointCount := u32(p, off)
		off += 4
		points := make([]PathPoint, 0, pointCount)
		for pt := uint32(0); pt < pointCount; pt++ {
			if off+24 > len(p) {
				return newLoadError("PATH", "path %d point %d truncated", i, pt)
			}
			points = append(points, PathPoint{X: f64(p, off), Y: f64(p, off+8), Speed: f64(p, off+16)})
			off += 24
		}
		paths = append(paths, Path{Name: c.stringTable[nameOff], Closed: closed, Precision: precision, Points: points})
	}
	c.Paths = paths
	return nil
}

// CodeEntry describes one bytecode span inside the shared CodeBlob.
type CodeEntry struct {
	Name       string
	ArgCount   int32
	LocalCount int32
	Offset     int32
	Length     int32
}

func decodeCODE(c *Container, p []byte) error {
	const headerSize = 4
	if len(p) < headerSize {
		return newLoadError("CODE", "payload too short")
	}
	entryCount := u32(p, 0)
	off := headerSize
	entries := make([]CodeEntry, 0, entryCount)
	for i := uint32(0); i < entryCount; i++ {
		if off+20 > len(p) {
			return newLoadError("CODE", "entry %d header truncated", i)
		}
		nameOff := u32(p, off)
		argc := i32(p, off+4)
		locals := i32(p, off+8)
		codeOff := i32(p, off+12)
		codeLen := i32(p, off+16)
		off += 20
		entries = append(entries, CodeEntry{
			Name: c.stringTable[nameOff], ArgCount: argc, LocalCount: locals,
			Offset: codeOff, Length: codeLen,
		})
	}
	if off+4 > len(p) {
		return newLoadError("CODE", "blob length field truncated")
	}
	blobLen := u32(p, off)
	off += 4
	if off+int(blobLen) > len(p) {
		return newLoadError("CODE", "blob truncated")
	}
	c.Code = entries
	c.CodeBlob = p[off : off+int(blobLen)]
	return nil
}

// Symbol is a VARI or FUNC table entry: a slot id paired with its name
// and scope kind (the scope constants are shared with package vm).
type Symbol struct {
	Name string
	Slot int32
	Scope int32
}

func decodeVARI(c *Container, p []byte) error {
	c.Vars = decodeSymbolTable(c, p)
	return nil
}

func decodeFUNC(c *Container, p []byte) error {
	c.Funcs = decodeSymbolTable(c, p)
	return nil
}

func decodeSymbolTable(c *Container, p []byte) []Symbol {
	if len(p) < 4 {
		return nil
	}
	count := u32(p, 0)
	off := 4
	syms := make([]Symbol, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+12 > len(p) {
			break
		}
		syms = append(syms, Symbol{
			Name:  c.stringTable[u32(p, off)],
			Slot:  i32(p, off+4),
			Scope: i32(p, off+8),
		})
		off += 12
	}
	return syms
}

// Script maps a script name to its CODE entry index.
type Script struct {
	Name      string
	CodeIndex int32
}

func decodeSCPT(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	scripts := make([]Script, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+8 > len(p) {
			return newLoadError("SCPT", "script %d truncated", i)
		}
		scripts = append(scripts, Script{Name: c.stringTable[u32(p, off)], CodeIndex: i32(p, off+4)})
		off += 8
	}
	c.Scripts = scripts
	return nil
}

// EventHandler is one (kind, subtype) -> code-index binding in an
// Object's event table.
type EventHandler struct {
	Kind, Subtype int32
	CodeIndex     int32
}

// Object is a decoded OBJT entry.
type Object struct {
	Name       string
	SpriteIndex int32
	Visible    bool
	Solid      bool
	Persistent bool
	ParentIndex int32 // -1 = none
	Depth      int32
	Events     []EventHandler
}

func decodeOBJT(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	objs := make([]Object, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+24 > len(p) {
			return newLoadError("OBJT", "object %d header truncated", i)
		}
		nameOff := u32(p, off)
		sprite := i32(p, off+4)
		flags := u32(p, off+8)
		parent := i32(p, off+12)
		depth := i32(p, off+16)
		eventCount := u32(p, off+20)
		off += 24
		events := make([]EventHandler, 0, eventCount)
		for e := uint32(0); e < eventCount; e++ {
			if off+12 > len(p) {
				return newLoadError("OBJT", "object %d event %d truncated", i, e)
			}
			events = append(events, EventHandler{
				Kind: i32(p, off), Subtype: i32(p, off+4), CodeIndex: i32(p, off+8),
			})
			off += 12
		}
		objs = append(objs, Object{
			Name: c.stringTable[nameOff], SpriteIndex: sprite,
			Visible: flags&1 != 0, Solid: flags&2 != 0, Persistent: flags&4 != 0,
			ParentIndex: parent, Depth: depth, Events: events,
		})
	}
	c.Objects = objs
	return nil
}

// View is one ROOM camera/viewport pair.
type View struct {
	Enabled                bool
	SrcX, SrcY, SrcW, SrcH int32
	PortX, PortY, PortW, PortH int32
}

// RoomInstance is one placed instance in a ROOM's static instance list.
type RoomInstance struct {
	ID                int32
	X, Y              float64
	ObjectIndex       int32
	CreationCodeIndex int32 // -1 = none
	ScaleX, ScaleY    float64
	Color             uint32
	Rotation          float64
}

// Room is a decoded ROOM entry.
type Room struct {
	Name              string
	Width, Height     int32
	BackgroundColor   uint32
	Speed             int32
	Views             []View
	Instances         []RoomInstance
	CreationCodeIndex int32 // -1 = none
}

func decodeROOM(c *Container, p []byte) error {
	count := u32(p, 0)
	off := 4
	rooms := make([]Room, 0, count)
	for i := uint32(0); i < count; i++ {
		if off+28 > len(p) {
			return newLoadError("ROOM", "room %d header truncated", i)
		}
		nameOff := u32(p, off)
		width := i32(p, off+4)
		height := i32(p, off+8)
		bg := u32(p, off+12)
		speed := i32(p, off+16)
		creationCode := i32(p, off+20)
		viewCount := u32(p, off+24)
		off += 28
		views := make([]View, 0, viewCount)
		for v := uint32(0); v < viewCount; v++ {
			if off+36 > len(p) {
				return newLoadError("ROOM", "room %d view %d truncated", i, v)
			}
			views = append(views, View{
				Enabled: i32(p, off) != 0,
				SrcX: i32(p, off+4), SrcY: i32(p, off+8), SrcW: i32(p, off+12), SrcH: i32(p, off+16),
				PortX: i32(p, off+20), PortY: i32(p, off+24), PortW: i32(p, off+28), PortH: i32(p, off+32),
			})
			off += 36
		}
		if off+4 > len(p) {
			return newLoadError("ROOM", "room %d instance count truncated", i)
		}
		instCount := u32(p, off)
		off += 4
		instances := make([]RoomInstance, 0, instCount)
		for inst := uint32(0); inst < instCount; inst++ {
			if off+56 > len(p) {
				return newLoadError("ROOM", "room %d instance %d truncated", i, inst)
			}
			instances = append(instances, RoomInstance{
				ID: i32(p, off), X: f64(p, off+4), Y: f64(p, off+12),
				ObjectIndex: i32(p, off+20), CreationCodeIndex: i32(p, off+24),
				ScaleX: f64(p, off+28), ScaleY: f64(p, off+36), Color: u32(p, off+44),
				Rotation: f64(p, off+48),
			})
			off += 56
		}
		rooms = append(rooms, Room{
			Name: c.stringTable[nameOff], Width: width, Height: height,
			BackgroundColor: bg, Speed: speed, Views: views, Instances: instances,
			CreationCodeIndex: creationCode,
		})
	}
	c.Rooms = rooms
	return nil
}
