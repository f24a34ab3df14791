package github

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/pr-warden/internal/core"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)

// ValidLines holds the line numbers of one file that can receive an inline
// review comment, split by diff side.
type ValidLines struct {
	Right map[int]struct{}
	Left  map[int]struct{}
}

// Contains reports whether a comment anchored at line/side lands inside the
// diff. An empty side counts as RIGHT.
func (v ValidLines) Contains(line int, side core.Side) bool {
	if side == core.SideLeft {
		_, ok := v.Left[line]
		return ok
	}
	_, ok := v.Right[line]
	return ok
}

// ParseValidLinesFromPatch extracts all line numbers that can receive a
// comment in a GitHub PR. RIGHT-side lines are those present in the new
// version ('+' and context lines), LEFT-side lines those present in the old
// version ('-' and context lines).
func ParseValidLinesFromPatch(patch string, logger *slog.Logger) ValidLines {
	valid := ValidLines{
		Right: make(map[int]struct{}),
		Left:  make(map[int]struct{}),
	}

	oldLine, newLine := -1, -1

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "@@") {
			matches := hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) >= 3 {
				o, errOld := strconv.Atoi(matches[1])
				n, errNew := strconv.Atoi(matches[2])
				if errOld != nil || errNew != nil {
					// Skip malformed hunk; don't use corrupted line numbers
					if logger != nil {
						logger.Warn("skipped malformed hunk header", "line", line)
					}
					oldLine, newLine = -1, -1
					continue
				}
				oldLine, newLine = o, n
			}
			continue
		}

		if oldLine == -1 || newLine == -1 {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			valid.Right[newLine] = struct{}{}
			newLine++
		case strings.HasPrefix(line, "-"):
			valid.Left[oldLine] = struct{}{}
			oldLine++
		case strings.HasPrefix(line, " "):
			valid.Right[newLine] = struct{}{}
			valid.Left[oldLine] = struct{}{}
			newLine++
			oldLine++
		default:
			// "\ No newline at end of file" and blank trailing lines
		}
	}

	return valid
}

// ValidLinesByFile builds the per-file valid line index for a whole PR.
func ValidLinesByFile(files []ChangedFile, logger *slog.Logger) map[string]ValidLines {
	byFile := make(map[string]ValidLines, len(files))
	for _, f := range files {
		if f.Patch == "" {
			continue
		}
		byFile[f.Filename] = ParseValidLinesFromPatch(f.Patch, logger)
	}
	return byFile
}
