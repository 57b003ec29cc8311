// Package cm implements the compositing-manager selection ownership
// protocol: claiming _NET_WM_CM_Sn, broadcasting the MANAGER
// ClientMessage, and redirecting subwindows through Composite.
package cm

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"
)

// ErrAlreadyActive is returned when _NET_WM_CM_Sn is already owned by a
// live window, i.e. another compositor is running for this screen.
var ErrAlreadyActive = fmt.Errorf("cm: _NET_WM_CM_Sn is already owned")

// ErrAnotherCompositorRunning is returned when RedirectSubwindows fails
// with REDIRECT_SUBWINDOWS as its minor opcode, meaning another client
// has already redirected the screen's subwindows.
var ErrAnotherCompositorRunning = fmt.Errorf("cm: another compositing manager has already redirected subwindows")

// Registration holds the resources acquired while claiming the
// compositing-manager selection, released in reverse order on Close.
type Registration struct {
	conn          *xgb.Conn
	root          xproto.Window
	selectionWin  xproto.Window
	selectionAtom xproto.Atom
	managerAtom   xproto.Atom
}

// Register runs the full CM registration protocol for screen number scr:
//
//  1. GetSelectionOwner(_NET_WM_CM_Sn); fails with ErrAlreadyActive if a
//     live window already owns it.
//  2. Create an unmapped 1x1 InputOnly window, own _NET_WM_CM_Sn via
//     SetSelectionOwner with a timestamp obtained from the ICCCM
//     owner-property dance.
//  3. Broadcast a MANAGER ClientMessage to the root.
//  4. RedirectSubwindows(root, Manual) through Composite.
//  5. Subscribe to SubstructureNotify | PropertyChange on the root.
func Register(conn *xgb.Conn, root xproto.Window, scr int, selectionAtom, managerAtom xproto.Atom) (*Registration, error) {
	owner, err := xproto.GetSelectionOwner(conn, selectionAtom).Reply()
	if err != nil {
		return nil, fmt.Errorf("cm: GetSelectionOwner: %w", err)
	}
	if owner.Owner != xproto.WindowNone {
		return nil, ErrAlreadyActive
	}

	winID, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("cm: allocating selection window id: %w", err)
	}
	if err := xproto.CreateWindowChecked(
		conn, xproto.WindowClassCopyFromParent, winID, root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, 0,
		0, nil,
	).Check(); err != nil {
		return nil, fmt.Errorf("cm: creating selection window: %w", err)
	}

	ts, err := ownerTimestamp(conn, winID)
	if err != nil {
		xproto.DestroyWindow(conn, winID)
		return nil, fmt.Errorf("cm: ICCCM owner-timestamp dance: %w", err)
	}

	if err := xproto.SetSelectionOwnerChecked(conn, winID, selectionAtom, xproto.Timestamp(ts)).Check(); err != nil {
		xproto.DestroyWindow(conn, winID)
		return nil, fmt.Errorf("cm: SetSelectionOwner: %w", err)
	}

	// Verify we actually got ownership (another client may have raced us).
	owner, err = xproto.GetSelectionOwner(conn, selectionAtom).Reply()
	if err != nil || owner.Owner != winID {
		xproto.DestroyWindow(conn, winID)
		return nil, ErrAlreadyActive
	}

	broadcastManager(conn, root, managerAtom, selectionAtom, winID, ts)

	if err := composite.RedirectSubwindowsChecked(conn, root, composite.RedirectManual).Check(); err != nil {
		xproto.DestroyWindow(conn, winID)
		// BadAccess is the only error RedirectSubwindows(Manual) can raise
		// here (our own selection ownership was just confirmed above), and
		// it means some other client already redirected the screen.
		return nil, fmt.Errorf("%w: %v", ErrAnotherCompositorRunning, err)
	}

	const mask = xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange
	if err := xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask, []uint32{mask}).Check(); err != nil {
		return nil, fmt.Errorf("cm: selecting root events: %w", err)
	}

	return &Registration{
		conn: conn, root: root,
		selectionWin: winID, selectionAtom: selectionAtom, managerAtom: managerAtom,
	}, nil
}

// ownerTimestamp performs the standard ICCCM owner-property dance: change
// a property on win to obtain a server timestamp from the resulting
// PropertyNotify, since SetSelectionOwner needs a real timestamp rather
// than CurrentTime to avoid races with clients watching the selection.
func ownerTimestamp(conn *xgb.Conn, win xproto.Window) (xproto.Timestamp, error) {
	const propName = "UNAGI_CM_TIMESTAMP"
	atomReply, err := xproto.InternAtom(conn, false, uint16(len(propName)), propName).Reply()
	if err != nil {
		return 0, err
	}

	if err := xproto.ChangeWindowAttributesChecked(conn, win, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		return 0, err
	}

	if err := xproto.ChangePropertyChecked(
		conn, xproto.PropModeReplace, win, atomReply.Atom, xproto.AtomInteger, 32,
		1, []byte{0, 0, 0, 0},
	).Check(); err != nil {
		return 0, err
	}

	for {
		ev, err := conn.WaitForEvent()
		if err != nil {
			return 0, err
		}
		if pn, ok := ev.(xproto.PropertyNotifyEvent); ok && pn.Window == win && pn.Atom == atomReply.Atom {
			return pn.Time, nil
		}
	}
}

// broadcastManager sends the MANAGER ClientMessage to the root window
// announcing the new _NET_WM_CM_Sn owner, per ICCCM manager-selection
// conventions.
func broadcastManager(conn *xgb.Conn, root xproto.Window, managerAtom, selectionAtom xproto.Atom, owner xproto.Window, ts xproto.Timestamp) {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: root,
		Type:   managerAtom,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(ts), uint32(selectionAtom), uint32(owner), 0, 0,
		}),
	}
	xproto.SendEvent(conn, false, root, xproto.EventMaskStructureNotify, string(ev.Bytes()))
}

// Close releases the claimed resources in reverse order of acquisition:
// the selection window is destroyed last, after a sync, so
// _NET_WM_CM_Sn is visibly released to other clients.
func (r *Registration) Close() error {
	composite.UnredirectSubwindows(r.conn, r.root, composite.RedirectManual)
	xproto.GetInputFocus(r.conn).Reply() // force a round trip (sync)
	return xproto.DestroyWindowChecked(r.conn, r.selectionWin).Check()
}
