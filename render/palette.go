package render

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps colour tokens to colours. Keys are "<hue>-<shade>" names as
// used in utility class tokens like "bg-blue-500".
type Palette map[string]colorful.Color

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultPalette covers the tokens used by the demo datasets.
var DefaultPalette = Palette{
	"blue-400":   mustHex("#60a5fa"),
	"blue-500":   mustHex("#3b82f6"),
	"green-500":  mustHex("#22c55e"),
	"purple-500": mustHex("#a855f7"),
	"orange-500": mustHex("#f97316"),
	"red-500":    mustHex("#ef4444"),
	"cyan-500":   mustHex("#06b6d4"),
	"yellow-300": mustHex("#fde047"),
	"yellow-500": mustHex("#eab308"),
	"yellow-800": mustHex("#854d0e"),
	"indigo-500": mustHex("#6366f1"),
	"pink-500":   mustHex("#ec4899"),
	"teal-500":   mustHex("#14b8a6"),
	"amber-500":  mustHex("#f59e0b"),
	"gray-200":   mustHex("#e5e7eb"),
	"gray-300":   mustHex("#d1d5db"),
	"gray-500":   mustHex("#6b7280"),
	"gray-600":   mustHex("#4b5563"),
	"gray-700":   mustHex("#374151"),
	"gray-800":   mustHex("#1f2937"),
}

var fallback = mustHex("#6b7280")

// Resolve turns a token into a colour. Accepted forms are "#rrggbb",
// "bg-blue-500", "blue-500" and "blue" (shade 500). Unknown tokens resolve
// to grey.
func (p Palette) Resolve(token string) colorful.Color {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "#") {
		if c, err := colorful.Hex(token); err == nil {
			return c
		}
		return fallback
	}

	for _, prefix := range []string{"bg-", "text-", "border-", "ring-"} {
		token = strings.TrimPrefix(token, prefix)
	}
	if c, ok := p[token]; ok {
		return c
	}
	if c, ok := p[token+"-500"]; ok {
		return c
	}
	return fallback
}

var white = colorful.Color{R: 1, G: 1, B: 1}

// Tint blends c towards white by amount (0 = c, 1 = white).
func Tint(c colorful.Color, amount float64) colorful.Color {
	return c.BlendLab(white, amount).Clamped()
}
