// Package refbackend implements a reference rendering backend using the
// X Render extension: every window's NameWindowPixmap is wrapped in a
// Render Picture and composited bottom-to-top onto a root-sized target
// Picture, clipped to the global damage region.
package refbackend

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/atoms"
	"unagi/internal/region"
	"unagi/internal/registry"
)

const (
	requestQueryVersion = iota
	requestCreatePicture
	requestChangePicture
	requestSetPictureClipRegion
	requestFreePicture
	requestComposite
	requestCreateGlyphSet
)

var requestLabels = []string{
	"RenderQueryVersion",
	"RenderCreatePicture",
	"RenderChangePicture",
	"RenderSetPictureClipRegion",
	"RenderFreePicture",
	"RenderComposite",
	"RenderCreateGlyphSet",
}

// windowState is the backend-private state stashed in
// registry.Window.Rendering: the Render Picture wrapping the window's
// current NameWindowPixmap.
type windowState struct {
	picture render.Picture
}

// Backend implements rendering.Backend against the X Render extension.
type Backend struct {
	conn     *xgb.Conn
	root     xproto.Window
	screen   *xproto.ScreenInfo
	registry *registry.Registry
	region   *region.Manager
	atoms    *atoms.Registry
	majorOpcode uint8
	firstError  uint8

	pictformat24 render.Pictformat
	pictformat32 render.Pictformat

	rootPicture render.Picture

	backgroundPicture render.Picture
	backgroundValid   bool
}

// New creates a Backend bound to conn/root/screen. majorOpcode and
// firstError are the Render extension's major opcode and first_error
// as reported by QueryExtension, used to classify X errors raised by
// this backend's own requests.
func New(conn *xgb.Conn, root xproto.Window, screen *xproto.ScreenInfo, reg *registry.Registry, rm *region.Manager, atomRegistry *atoms.Registry, majorOpcode, firstError uint8) *Backend {
	return &Backend{conn: conn, root: root, screen: screen, registry: reg, region: rm, atoms: atomRegistry, majorOpcode: majorOpcode, firstError: firstError}
}

// ErrorOffset translates a raw X error code into this extension's
// local, zero-based error numbering, for passing to ErrorLabel.
func (b *Backend) ErrorOffset(code uint8) uint8 { return code - b.firstError }

// Init queries picture formats and creates the root window's target
// Picture.
func (b *Backend) Init() error {
	if err := render.Init(b.conn); err != nil {
		return fmt.Errorf("refbackend: render.Init: %w", err)
	}
	formats, err := render.QueryPictFormats(b.conn).Reply()
	if err != nil {
		return fmt.Errorf("refbackend: QueryPictFormats: %w", err)
	}
	b.pictformat24, err = findPictformat(formats.Formats, 24)
	if err != nil {
		return err
	}
	b.pictformat32, err = findPictformat(formats.Formats, 32)
	if err != nil {
		return err
	}

	picID, err := render.NewPictureId(b.conn)
	if err != nil {
		return err
	}
	pictformat := b.pictformatForDepth(b.screen.RootDepth)
	if err := render.CreatePictureChecked(b.conn, picID, xproto.Drawable(b.root), pictformat, 0, nil).Check(); err != nil {
		return fmt.Errorf("refbackend: CreatePicture(root): %w", err)
	}
	b.rootPicture = picID
	return nil
}

// InitFinalise is a no-op for this backend: nothing it does depends on
// the registry or extension gate being fully populated beyond Init.
func (b *Backend) InitFinalise() error { return nil }

func (b *Backend) pictformatForDepth(depth byte) render.Pictformat {
	if depth == 32 {
		return b.pictformat32
	}
	return b.pictformat24
}

func findPictformat(fs []render.Pictforminfo, depth byte) (render.Pictformat, error) {
	want := render.Directformat{
		RedShift: 16, RedMask: 0xff,
		GreenShift: 8, GreenMask: 0xff,
		BlueShift: 0, BlueMask: 0xff,
		AlphaShift: 24, AlphaMask: 0xff,
	}
	if depth == 24 {
		want.AlphaShift, want.AlphaMask = 0, 0
	}
	for _, f := range fs {
		if f.Type == render.PictTypeDirect && f.Depth == depth && f.Direct == want {
			return f.Id, nil
		}
	}
	return 0, fmt.Errorf("refbackend: no matching Pictformat for depth %d", depth)
}

// pictureFor returns w's cached Picture, creating it (and the window's
// pixmap, if needed) on first use.
func (b *Backend) pictureFor(w *registry.Window) (render.Picture, error) {
	if st, ok := w.Rendering.(*windowState); ok {
		return st.picture, nil
	}
	pixmap, err := b.registry.GetPixmap(w)
	if err != nil {
		return 0, err
	}
	picID, err := render.NewPictureId(b.conn)
	if err != nil {
		return 0, err
	}
	depth := byte(24)
	if w.Geometry.BorderWidth == 0 && !w.IsRectangular {
		depth = 32
	}
	if err := render.CreatePictureChecked(b.conn, picID, xproto.Drawable(pixmap), b.pictformatForDepth(depth), 0, nil).Check(); err != nil {
		return 0, fmt.Errorf("refbackend: CreatePicture(window %#x): %w", w.ID, err)
	}
	w.Rendering = &windowState{picture: picID}
	return picID, nil
}

// PaintWindow composites w onto the root picture at its current
// geometry, clipped to the global damage region.
func (b *Backend) PaintWindow(w *registry.Window) error {
	if !b.registry.IsVisible(w) {
		return nil
	}
	pic, err := b.pictureFor(w)
	if err != nil {
		return err
	}
	render.Composite(b.conn, render.PictOpOver, pic, 0, b.rootPicture,
		0, 0, 0, 0, w.Geometry.X, w.Geometry.Y,
		w.Geometry.WidthWithBorder(), w.Geometry.HeightWithBorder())
	w.ResetDamage()
	return nil
}

// PaintAll clips the root picture to the global damage region, paints
// the root background beneath everything, then composites every
// visible window bottom-to-top.
func (b *Backend) PaintAll(damaged bool) {
	if damaged {
		xfixes.SetPictureClipRegion(b.conn, b.rootPicture, b.region.Damaged(), 0, 0)
	}
	b.PaintBackground()
	for _, w := range b.registry.Windows() {
		if err := b.PaintWindow(w); err != nil {
			continue
		}
	}
}

// ResetBackground invalidates the cached root background picture. The
// next PaintBackground call rebuilds it from the current
// _XROOTPMAP_ID/_XSETROOT_ID property.
func (b *Backend) ResetBackground() {
	if b.backgroundPicture != 0 {
		render.FreePicture(b.conn, b.backgroundPicture)
		b.backgroundPicture = 0
	}
	b.backgroundValid = false
}

// PaintBackground composites the cached root background picture onto
// the root picture, rebuilding it first if ResetBackground invalidated
// it. If no background pixmap is set, it leaves whatever is already on
// the root picture untouched.
func (b *Backend) PaintBackground() {
	if !b.backgroundValid {
		b.loadBackgroundPicture()
	}
	if b.backgroundPicture == 0 {
		return
	}
	render.Composite(b.conn, render.PictOpSrc, b.backgroundPicture, 0, b.rootPicture,
		0, 0, 0, 0, 0, 0, b.screen.WidthInPixels, b.screen.HeightInPixels)
}

// loadBackgroundPicture reads the root's background pixmap property
// and wraps it in a Render Picture, caching the result until the next
// ResetBackground.
func (b *Backend) loadBackgroundPicture() {
	b.backgroundValid = true
	pixmap, ok := b.rootBackgroundPixmap()
	if !ok {
		return
	}
	picID, err := render.NewPictureId(b.conn)
	if err != nil {
		return
	}
	if err := render.CreatePictureChecked(b.conn, picID, xproto.Drawable(pixmap),
		b.pictformatForDepth(b.screen.RootDepth), 0, nil).Check(); err != nil {
		return
	}
	b.backgroundPicture = picID
}

// rootBackgroundPixmap reads _XROOTPMAP_ID, falling back to
// _XSETROOT_ID, the two conventional properties a root-background
// setting tool (e.g. xsetroot, a wallpaper daemon) stores the pixmap
// XID in.
func (b *Backend) rootBackgroundPixmap() (xproto.Pixmap, bool) {
	for _, name := range []string{"_XROOTPMAP_ID", "_XSETROOT_ID"} {
		reply, err := xproto.GetProperty(b.conn, false, b.root, b.atoms.Atom(name),
			xproto.AtomPixmap, 0, 1).Reply()
		if err != nil || reply.ValueLen == 0 || len(reply.Value) < 4 {
			continue
		}
		raw := uint32(reply.Value[0]) | uint32(reply.Value[1])<<8 |
			uint32(reply.Value[2])<<16 | uint32(reply.Value[3])<<24
		return xproto.Pixmap(raw), true
	}
	return 0, false
}

// FreeWindow releases w's cached Picture, if any.
func (b *Backend) FreeWindow(w *registry.Window) {
	b.freePicture(w)
}

// FreeWindowPixmap releases w's cached Picture, since it wraps the
// pixmap about to be replaced or freed.
func (b *Backend) FreeWindowPixmap(w *registry.Window) {
	b.freePicture(w)
}

func (b *Backend) freePicture(w *registry.Window) {
	st, ok := w.Rendering.(*windowState)
	if !ok {
		return
	}
	render.FreePicture(b.conn, st.picture)
	w.Rendering = nil
}

// IsOwnRequest reports whether majorOpcode belongs to this backend's
// Render extension instance.
func (b *Backend) IsOwnRequest(majorOpcode uint8) bool { return majorOpcode == b.majorOpcode }

// RequestLabel decodes one of this backend's own request minor opcodes.
func (b *Backend) RequestLabel(minorCode uint16) string {
	if int(minorCode) < len(requestLabels) {
		return requestLabels[minorCode]
	}
	return "unknown"
}

// ErrorLabel decodes one of Render's own error codes, numbered from
// first_error. Only offset 0, BadPictFormat, is labelled; Render's other
// errors (BadPicture, BadPictOp, BadGlyphSet, BadGlyph at offsets 1-4)
// and any other code yield an empty label.
func (b *Backend) ErrorLabel(errorCode uint8) string {
	if errorCode == 0 {
		return "BadPictFormat"
	}
	return ""
}
