package playback

// Rect is a row's vertical extent in content coordinates.
type Rect struct {
	Top    float64
	Height float64
}

func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Viewport is the scrolling list that shows the segments.
type Viewport interface {
	// Bounds locates the row for a segment id.
	Bounds(id string) (Rect, bool)
	// Window reports the current scroll offset and visible height.
	Window() (scrollTop, height float64)
	ScrollTo(top float64, smooth bool)
}

// ScrollTarget decides whether row is outside the visible window and, if so,
// returns the offset that puts it a third of the way down the view.
func ScrollTarget(row Rect, scrollTop, height float64) (float64, bool) {
	above := row.Top < scrollTop
	below := row.Bottom() > scrollTop+height
	if !above && !below {
		return scrollTop, false
	}
	return max(row.Top-height/3, 0), true
}
