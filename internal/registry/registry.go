package registry

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"

	"unagi/internal/itree"
)

// Backend is the subset of the rendering contract (internal/rendering)
// the registry needs in order to free backend-private state at the right
// points in a window record's lifecycle. Defined locally (rather than
// imported) so internal/rendering can in turn depend on internal/registry
// for the *Window type without an import cycle.
type Backend interface {
	FreeWindowPixmap(*Window)
	FreeWindow(*Window)
}

// Registry owns every known window record, indexed two ways: a
// stack-ordered doubly-linked list (authoritative for paint order and
// restack) and an itree.Tree keyed by window id (a dispatch-lookup
// cache). Both structures are kept in lockstep behind this façade so the
// invariant "every window is present exactly once in both" cannot be
// broken by a partial update.
type Registry struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo

	head, tail *Window
	byID       *itree.Tree
	count      int
}

// New creates an empty registry bound to conn/root/screen.
func New(conn *xgb.Conn, root xproto.Window, screen *xproto.ScreenInfo) *Registry {
	return &Registry{conn: conn, root: root, screen: screen, byID: itree.New()}
}

// Size returns the number of windows currently registered.
func (r *Registry) Size() int { return r.count }

func (r *Registry) linkTail(w *Window) {
	w.prev, w.next = r.tail, nil
	if r.tail != nil {
		r.tail.next = w
	} else {
		r.head = w
	}
	r.tail = w
}

func (r *Registry) unlink(w *Window) {
	if w.prev != nil {
		w.prev.next = w.next
	} else {
		r.head = w.next
	}
	if w.next != nil {
		w.next.prev = w.prev
	} else {
		r.tail = w.prev
	}
	w.prev, w.next = nil, nil
}

// Windows returns the registered windows bottom-most first, mirroring the
// server's sibling stack order. The slice is a snapshot; mutating the
// registry afterward does not affect it.
func (r *Registry) Windows() []*Window {
	out := make([]*Window, 0, r.count)
	for w := r.head; w != nil; w = w.next {
		out = append(out, w)
	}
	return out
}

// Add creates a record for id, subscribes to property/structure events on
// it, and — if sendChangeRequests — also requests its current
// attributes and geometry and refreshes its IsRectangular cache. Returns
// nil if id is already registered.
func (r *Registry) Add(id xproto.Window, sendChangeRequests bool) (*Window, error) {
	if _, ok := itree.Get(r.byID, uint32(id)); ok {
		return nil, nil
	}

	w := &Window{ID: id}
	r.byID = itree.Insert(r.byID, uint32(id), w)
	r.linkTail(w)
	r.count++

	const mask = xproto.EventMaskPropertyChange | xproto.EventMaskStructureNotify
	if err := xproto.ChangeWindowAttributesChecked(r.conn, id, xproto.CwEventMask,
		[]uint32{mask}).Check(); err != nil {
		return w, fmt.Errorf("registry: selecting events on %#x: %w", id, err)
	}

	if sendChangeRequests {
		attr, err := xproto.GetWindowAttributes(r.conn, id).Reply()
		if err != nil {
			return w, fmt.Errorf("registry: GetWindowAttributes(%#x): %w", id, err)
		}
		w.OverrideRedirect = attr.OverrideRedirect
		if attr.MapState == xproto.MapStateViewable {
			w.MapState = Viewable
		}

		geom, err := xproto.GetGeometry(r.conn, xproto.Drawable(id)).Reply()
		if err != nil {
			return w, fmt.Errorf("registry: GetGeometry(%#x): %w", id, err)
		}
		w.Geometry = Geometry{
			X: geom.X, Y: geom.Y,
			Width: geom.Width, Height: geom.Height,
			BorderWidth: geom.BorderWidth,
		}

		r.IsRectangular(w)
	}

	r.RegisterNotify(w)

	return w, nil
}

// ListGet looks up a window record by id in O(log n).
func (r *Registry) ListGet(id xproto.Window) *Window {
	v, ok := itree.Get(r.byID, uint32(id))
	if !ok {
		return nil
	}
	return v.(*Window)
}

// Remove unlinks w from the stack list and map, releases its pixmap, and
// destroys its region. If releaseBackend, the backend's FreeWindow hook
// is invoked first so backend-private state can be torn down while the
// record is still reachable.
func (r *Registry) Remove(w *Window, releaseBackend bool, backend Backend) {
	if w == nil {
		return
	}
	if releaseBackend && backend != nil {
		backend.FreeWindow(w)
	}
	r.FreePixmap(w, backend)
	if w.Region != 0 {
		xfixes.DestroyRegion(r.conn, w.Region)
		w.Region = 0
	}
	// DestroyNotify implicitly frees the server-side Damage object; we
	// only zero our handle, never issue damage.Destroy ourselves here.
	w.Damage = 0

	r.unlink(w)
	r.byID = itree.Remove(r.byID, uint32(w.ID))
	r.count--
}

// Restack relocates w directly above aboveSibling in the stack list.
// aboveSibling == xproto.WindowNone moves w to the bottom.
func (r *Registry) Restack(w *Window, aboveSibling xproto.Window) {
	if w == nil || w.ID == aboveSibling {
		return
	}
	r.unlink(w)
	r.count-- // temporarily excluded; re-added by the link below

	if aboveSibling == xproto.WindowNone {
		w.prev, w.next = nil, r.head
		if r.head != nil {
			r.head.prev = w
		} else {
			r.tail = w
		}
		r.head = w
		r.count++
		return
	}

	above := r.ListGet(aboveSibling)
	if above == nil {
		// Sibling unknown (e.g. not itself a managed top-level window):
		// fall back to the top of the stack, which keeps the invariant
		// that restacking never drops a window from the list.
		r.count++
		r.linkTail(w)
		return
	}

	w.prev, w.next = above, above.next
	if above.next != nil {
		above.next.prev = w
	} else {
		r.tail = w
	}
	above.next = w
	r.count++
}

// ManageExisting batch-adds the initial tree snapshot at startup, in the
// order the server reports siblings (bottom-most first).
func (r *Registry) ManageExisting(ids []xproto.Window) error {
	for _, id := range ids {
		if _, err := r.Add(id, true); err != nil {
			return err
		}
	}
	return nil
}

// FreePixmap destroys w's server-side pixmap, if any, and invokes the
// backend's FreeWindowPixmap hook.
func (r *Registry) FreePixmap(w *Window, backend Backend) {
	if w.Pixmap == 0 {
		return
	}
	if backend != nil {
		backend.FreeWindowPixmap(w)
	}
	xproto.FreePixmap(r.conn, w.Pixmap)
	w.Pixmap = 0
}

// IsVisible reports whether w is Viewable and its geometry intersects the
// screen.
func (r *Registry) IsVisible(w *Window) bool {
	if w.MapState != Viewable {
		return false
	}
	onScreenW := int32(r.screen.WidthInPixels)
	onScreenH := int32(r.screen.HeightInPixels)
	x0, y0 := int32(w.Geometry.X), int32(w.Geometry.Y)
	x1 := x0 + int32(w.Geometry.WidthWithBorder())
	y1 := y0 + int32(w.Geometry.HeightWithBorder())
	return x1 > 0 && y1 > 0 && x0 < onScreenW && y0 < onScreenH
}

// IsRectangular refreshes and returns the cache of whether w has no
// non-rectangular shape region, i.e. whether its cached XFixes region
// consists of at most one rectangle. A window with no cached region
// counts as rectangular.
func (r *Registry) IsRectangular(w *Window) bool {
	reply, err := xfixes.FetchRegion(r.conn, w.Region).Reply()
	if err != nil || w.Region == 0 {
		w.IsRectangular = true
		return true
	}
	w.IsRectangular = len(reply.Rectangles) <= 1
	return w.IsRectangular
}

// GetPixmap allocates (or returns the existing) NameWindowPixmap id for
// w. Undefined if w is not Viewable.
func (r *Registry) GetPixmap(w *Window) (xproto.Pixmap, error) {
	if w.Pixmap != 0 {
		return w.Pixmap, nil
	}
	id, err := xproto.NewPixmapId(r.conn)
	if err != nil {
		return 0, err
	}
	if err := composite.NameWindowPixmapChecked(r.conn, w.ID, id).Check(); err != nil {
		return 0, fmt.Errorf("registry: NameWindowPixmap(%#x): %w", w.ID, err)
	}
	w.Pixmap = id
	return id, nil
}

// GetRegion returns an XFixes region id covering w's screen rectangle,
// optionally including its border. If createNew, a fresh region replaces
// any cached one rather than being reused.
func (r *Registry) GetRegion(w *Window, withBorder bool, createNew bool) (xfixes.Region, error) {
	if w.Region != 0 && !createNew {
		return w.Region, nil
	}
	if w.Region != 0 {
		xfixes.DestroyRegion(r.conn, w.Region)
	}

	width, height := w.Geometry.Width, w.Geometry.Height
	if withBorder {
		width, height = w.Geometry.WidthWithBorder(), w.Geometry.HeightWithBorder()
	}

	id, err := xfixes.NewRegionId(r.conn)
	if err != nil {
		return 0, err
	}
	rect := xproto.Rectangle{X: w.Geometry.X, Y: w.Geometry.Y, Width: width, Height: height}
	if err := xfixes.CreateRegionChecked(r.conn, id, []xproto.Rectangle{rect}).Check(); err != nil {
		return 0, fmt.Errorf("registry: CreateRegion for %#x: %w", w.ID, err)
	}
	w.Region = id
	return id, nil
}

// GetInvisibleWindowPixmap force-maps an unmapped override-redirect
// window to obtain a pixmap for it, returning a finalise function that
// restores its prior map state.
func (r *Registry) GetInvisibleWindowPixmap(w *Window) (finalise func(), err error) {
	if w.MapState == Viewable {
		return func() {}, nil
	}
	if err := xproto.MapWindowChecked(r.conn, w.ID).Check(); err != nil {
		return nil, fmt.Errorf("registry: force-mapping %#x: %w", w.ID, err)
	}
	prev := w.MapState
	w.MapState = Viewable
	finalise = func() {
		w.MapState = prev
		xproto.UnmapWindowChecked(r.conn, w.ID).Check()
	}
	if _, err := r.GetPixmap(w); err != nil {
		finalise()
		return nil, err
	}
	return finalise, nil
}

// RegisterNotify requests a Damage object (report level NonEmpty) for w.
// The window's event selection mask is set separately, by Add.
func (r *Registry) RegisterNotify(w *Window) {
	id, err := damage.NewDamageId(r.conn)
	if err != nil {
		return
	}
	const reportLevel = damage.ReportLevelNonEmpty
	if err := damage.CreateChecked(r.conn, id, xproto.Drawable(w.ID), byte(reportLevel)).Check(); err != nil {
		return
	}
	w.Damage = id
}
