package engine

import (
	"log"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
)

// X11 core protocol error codes (X.h): fixed by the protocol, not by
// any extension, so these never change across servers.
const (
	errCodeRequest        = 1
	errCodeValue          = 2
	errCodeWindow         = 3
	errCodePixmap         = 4
	errCodeAtom           = 5
	errCodeCursor         = 6
	errCodeFont           = 7
	errCodeMatch          = 8
	errCodeDrawable       = 9
	errCodeAccess         = 10
	errCodeAlloc          = 11
	errCodeColormap       = 12
	errCodeGContext       = 13
	errCodeIDChoice       = 14
	errCodeName           = 15
	errCodeLength         = 16
	errCodeImplementation = 17
)

// handleXError classifies a decoded xgb.Error into the (major, minor,
// code) triple the dispatcher's request/error label tables expect,
// falling back to the error's own description when the concrete type
// isn't one this switch recognises (e.g. a core error raised by an
// extension request this compositor never issues).
func (e *Engine) handleXError(xerr xgb.Error) {
	switch err := xerr.(type) {
	case xproto.RequestError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeRequest)
	case xproto.ValueError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeValue)
	case xproto.WindowError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeWindow)
	case xproto.PixmapError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodePixmap)
	case xproto.AtomError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeAtom)
	case xproto.CursorError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeCursor)
	case xproto.FontError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeFont)
	case xproto.MatchError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeMatch)
	case xproto.DrawableError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeDrawable)
	case xproto.AccessError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeAccess)
	case xproto.AllocError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeAlloc)
	case xproto.ColormapError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeColormap)
	case xproto.GContextError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeGContext)
	case xproto.IDChoiceError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeIDChoice)
	case xproto.NameError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeName)
	case xproto.LengthError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeLength)
	case xproto.ImplementationError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, errCodeImplementation)

	case damage.BadDamageError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 0)

	case render.PictFormatError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 0)
	case render.PictureError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 1)
	case render.PictOpError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 2)
	case render.GlyphSetError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 3)
	case render.GlyphError:
		e.dispatch.HandleError(err.MajorOpcode, err.MinorOpcode, 4)

	default:
		log.Printf("X error: %v", xerr)
	}
}
