package header

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var defineLine = regexp.MustCompile(`^#define\s+(\w+)\s+(\d+)\b`)

// ParseDefines reads the decimal "#define NAME VALUE" lines of an existing
// header whose name starts with prefix. Property and macro lines are skipped.
func ParseDefines(r io.Reader, prefix string) (map[string]int, error) {
	out := make(map[string]int)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := defineLine.FindStringSubmatch(sc.Text())
		if m == nil || !strings.HasPrefix(m[1], prefix) {
			continue
		}
		v, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		out[m[1]] = v
	}
	return out, sc.Err()
}
