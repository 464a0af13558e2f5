package input

import "github.com/hajimehoshi/ebiten/v2"

// gmKeyCodes maps a representative subset of GameMaker's virtual key
// codes (matching the source title's input mapping, §6) to ebiten keys.
// Letters/digits use their ASCII codes, exactly as GameMaker does.
var gmKeyCodes = map[int32]ebiten.Key{
	8:   ebiten.KeyBackspace,
	9:   ebiten.KeyTab,
	13:  ebiten.KeyEnter,
	16:  ebiten.KeyShift,
	17:  ebiten.KeyControl,
	18:  ebiten.KeyAlt,
	27:  ebiten.KeyEscape,
	32:  ebiten.KeySpace,
	33:  ebiten.KeyPageUp,
	34:  ebiten.KeyPageDown,
	35:  ebiten.KeyEnd,
	36:  ebiten.KeyHome,
	37:  ebiten.KeyLeft,
	38:  ebiten.KeyUp,
	39:  ebiten.KeyRight,
	40:  ebiten.KeyDown,
	46:  ebiten.KeyDelete,
	48:  ebiten.Key0,
	49:  ebiten.Key1,
	50:  ebiten.Key2,
	51:  ebiten.Key3,
	52:  ebiten.Key4,
	53:  ebiten.Key5,
	54:  ebiten.Key6,
	55:  ebiten.Key7,
	56:  ebiten.Key8,
	57:  ebiten.Key9,
	65:  ebiten.KeyA,
	66:  ebiten.KeyB,
	67:  ebiten.KeyC,
	68:  ebiten.KeyD,
	69:  ebiten.KeyE,
	70:  ebiten.KeyF,
	71:  ebiten.KeyG,
	72:  ebiten.KeyH,
	73:  ebiten.KeyI,
	74:  ebiten.KeyJ,
	75:  ebiten.KeyK,
	76:  ebiten.KeyL,
	77:  ebiten.KeyM,
	78:  ebiten.KeyN,
	79:  ebiten.KeyO,
	80:  ebiten.KeyP,
	81:  ebiten.KeyQ,
	82:  ebiten.KeyR,
	83:  ebiten.KeyS,
	84:  ebiten.KeyT,
	85:  ebiten.KeyU,
	86:  ebiten.KeyV,
	87:  ebiten.KeyW,
	88:  ebiten.KeyX,
	89:  ebiten.KeyY,
	90:  ebiten.KeyZ,
	112: ebiten.KeyF1,
	113: ebiten.KeyF2,
	114: ebiten.KeyF3,
	115: ebiten.KeyF4,
}

// LiveSource samples the real keyboard through ebiten/inpututil. Used
// outside headless/--playback-inputs runs.
type LiveSource struct{}

func (LiveSource) Sample(frame int) map[int32]bool {
	down := make(map[int32]bool)
	for gmCode, key := range gmKeyCodes {
		if ebiten.IsKeyPressed(key) {
			down[gmCode] = true
		}
	}
	return down
}
