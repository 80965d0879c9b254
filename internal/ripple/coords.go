package ripple

// container bounding box relative to the viewport
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// maps a document-absolute point into container coordinates. inside reports
// whether the point falls within the container.
func ToContainer(pageX, pageY float64, rect Rect, scrollX, scrollY float64) (x, y float64, inside bool) {
	x = pageX - (rect.Left + scrollX)
	y = pageY - (rect.Top + scrollY)

	inside = x >= 0 && x <= rect.Width && y >= 0 && y <= rect.Height
	return x, y, inside
}
