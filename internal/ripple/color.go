package ripple

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidColor = errors.New("invalid color")

// parses #rgb, #rrggbb, rgb(r, g, b) and rgba(r, g, b, a); alpha is ignored
func ParseColor(s string) (colorful.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}

		return c, nil
	}

	var body string

	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		body = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		body = s[len("rgb(") : len(s)-1]
	default:
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	parts := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 && len(parts) != 4 {
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}

	var rgb [3]float64

	for i := range rgb {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil || v < 0 || v > 255 {
			return colorful.Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}

		rgb[i] = v / 255
	}

	return colorful.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// rotates the hue by degrees keeping saturation and lightness
func ShiftHue(c colorful.Color, degrees float64) colorful.Color {
	if degrees == 0 {
		return c
	}

	h, s, l := c.Hsl()
	h = math.Mod(h+degrees, 360)

	if h < 0 {
		h += 360
	}

	return colorful.Hsl(h, s, l).Clamped()
}
