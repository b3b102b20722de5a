// Package stats contains session statistics calculations and reporting.
package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/blinkmorse/internal/model"
	"github.com/verte-zerg/blinkmorse/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionRecord
}

// BuildReport loads and prepares session data for rendering.
func BuildReport(ctx context.Context, st *store.Store, filter store.HistoryFilter) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	return Report{Sessions: sessions}, nil
}

// Render writes the summary, the per-session table, and progress curves.
func (r Report) Render(w io.Writer, curveWindow, totalWidth, height int, useColor bool) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderHistoryTable(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) > 1 {
		return RenderCurvesWithSize(w, r.Sessions, curveWindow, totalWidth, height, useColor)
	}
	return nil
}
