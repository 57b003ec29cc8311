// Package region maintains the single global damage region that the paint
// scheduler repaints from, and the force-repaint flag.
package region

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
)

// Manager owns the global XFixes damage region. Only the event dispatcher
// and plugin pre-paint hooks may add to it; only the paint scheduler may
// reset it, and only after a successful paint.
type Manager struct {
	conn *xgb.Conn

	damaged      xfixes.Region
	forceRepaint bool
}

// New creates a Manager with a fresh, empty XFixes region.
func New(conn *xgb.Conn) (*Manager, error) {
	id, err := xfixes.NewRegionId(conn)
	if err != nil {
		return nil, err
	}
	if err := xfixes.CreateRegionChecked(conn, id, nil).Check(); err != nil {
		return nil, err
	}
	return &Manager{conn: conn, damaged: id}, nil
}

// Damaged returns the current global damage region id.
func (m *Manager) Damaged() xfixes.Region { return m.damaged }

// IsEmpty reports whether the global damage region currently has no
// rectangles, by checking its extents.
func (m *Manager) IsEmpty() (bool, error) {
	reply, err := xfixes.FetchRegion(m.conn, m.damaged).Reply()
	if err != nil {
		return false, err
	}
	r := reply.Extents
	return r.Width == 0 || r.Height == 0, nil
}

// AddDamagedRegion unions region into the global damage region. If
// isTemporary, region is destroyed server-side after the union (the
// caller created it solely to express a translated rectangle and has no
// further use for it).
func (m *Manager) AddDamagedRegion(region xfixes.Region, isTemporary bool) error {
	if err := xfixes.UnionRegionChecked(m.conn, m.damaged, region, m.damaged).Check(); err != nil {
		return err
	}
	if isTemporary {
		return xfixes.DestroyRegionChecked(m.conn, region).Check()
	}
	return nil
}

// ResetDamaged empties the global damage region. Idempotent: calling it
// twice in a row is a no-op the second time.
func (m *Manager) ResetDamaged() error {
	return xfixes.SetRegionChecked(m.conn, m.damaged, nil).Check()
}

// ForceRepaint reports whether the next paint should repaint everything
// regardless of the damage region's contents.
func (m *Manager) ForceRepaint() bool { return m.forceRepaint }

// SetForceRepaint sets or clears the force-repaint flag, e.g. after a root
// ConfigureNotify that invalidates the whole screen.
func (m *Manager) SetForceRepaint(v bool) { m.forceRepaint = v }

// Close destroys the global region's server-side resource.
func (m *Manager) Close() error {
	return xfixes.DestroyRegionChecked(m.conn, m.damaged).Check()
}
