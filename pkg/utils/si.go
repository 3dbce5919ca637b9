package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var siNumber = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)([a-zA-Z]*)$`)

var siPrefixes = map[int]string{
	-15: "f",
	-12: "p",
	-9:  "n",
	-6:  "u",
	-3:  "m",
	0:   "",
	3:   "k",
	6:   "meg",
	9:   "g",
	12:  "t",
}

// ParseSI parses a number written the way SPICE decks write them: an
// optional scale suffix (f p n u m k meg g t, case-insensitive) followed by
// any unit letters, which are ignored. "100ps", "0.42u" and "1.8V" all parse.
func ParseSI(text string) (float64, error) {
	m := siNumber.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, fmt.Errorf("invalid quantity %q", text)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", text, err)
	}
	return value * siScale(strings.ToLower(m[2])), nil
}

func siScale(suffix string) float64 {
	switch {
	case suffix == "":
		return 1
	case strings.HasPrefix(suffix, "meg"):
		return 1e6
	case strings.HasPrefix(suffix, "mil"):
		return 25.4e-6
	}
	switch suffix[0] {
	case 'f':
		return 1e-15
	case 'p':
		return 1e-12
	case 'n':
		return 1e-9
	case 'u':
		return 1e-6
	case 'm':
		return 1e-3
	case 'k':
		return 1e3
	case 'g':
		return 1e9
	case 't':
		return 1e12
	default:
		return 1
	}
}

// FormatSI formats v in engineering notation with a SPICE scale suffix,
// keeping the given number of significant digits.
func FormatSI(v float64, digits int) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', digits, 64)
	}
	exp := int(math.Floor(math.Log10(math.Abs(v))/3)) * 3
	mantissa := v / math.Pow(10, float64(exp))
	if math.Abs(mantissa) >= 1000 {
		exp += 3
		mantissa /= 1000
	} else if math.Abs(mantissa) < 1 {
		exp -= 3
		mantissa *= 1000
	}
	prefix, ok := siPrefixes[exp]
	if !ok {
		return strconv.FormatFloat(v, 'e', digits-1, 64)
	}
	return strconv.FormatFloat(mantissa, 'g', digits, 64) + prefix
}
