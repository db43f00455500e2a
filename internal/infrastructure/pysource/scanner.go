// Package pysource reads the parts of Python source files rela cares
// about: test classes with their keep markers, and import statements.
// It is line based and does not evaluate anything.
package pysource

import (
	"bufio"
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/rela/internal/domain"
)

// Comment pragmas. PragmaKeep marks the next method as kept, PragmaCase
// marks the next class as a case whose keep markers count.
const (
	PragmaKeep = "rela:keep"
	PragmaCase = "rela:case"
)

var (
	classRe     = regexp.MustCompile(`^class\s+([A-Za-z_]\w*)\s*[(:]`)
	defRe       = regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	keepDecorRe = regexp.MustCompile(`^@(?:[A-Za-z_]\w*\.)*keep(?:\(\s*\))?\s*(?:#.*)?$`)
	caseDecorRe = regexp.MustCompile(`^@(?:[A-Za-z_]\w*\.)*case(?:\(\s*\))?\s*(?:#.*)?$`)
)

type Scanner struct{}

type openClass struct {
	class      domain.TestClass
	indent     int
	bodyIndent int // -1 until the first body line
}

// ScanTests returns the classes declared in file with their direct methods.
// A method is flagged Keep when it carries a keep() decorator or a
// "# rela:keep" comment on the line above it or on its def line. A class is
// flagged Case the same way, by a case() decorator or "# rela:case".
func (Scanner) ScanTests(ctx context.Context, file string) ([]domain.TestClass, error) {
	f, err := os.Open(file) // #nosec G304 -- path supplied by the user on purpose
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var (
		classes []domain.TestClass
		stack   []*openClass
		keep    bool
		isCase  bool
		quote   string
		lineNo  int
	)
	closeTo := func(indent int) {
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			classes = append(classes, top.class)
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		if lineNo%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		raw := scanner.Text()

		if quote != "" {
			if strings.Count(raw, quote)%2 == 1 {
				quote = ""
			}
			continue
		}

		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		indent := indentOf(raw)

		if strings.HasPrefix(code, "#") {
			if strings.Contains(code, PragmaKeep) {
				keep = true
			}
			if strings.Contains(code, PragmaCase) {
				isCase = true
			}
			continue
		}

		closeTo(indent)
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.bodyIndent < 0 {
				top.bodyIndent = indent
			}
		}

		switch {
		case strings.HasPrefix(code, "@"):
			if keepDecorRe.MatchString(code) || strings.Contains(code, PragmaKeep) {
				keep = true
			}
			if caseDecorRe.MatchString(code) || strings.Contains(code, PragmaCase) {
				isCase = true
			}
		case classRe.MatchString(code):
			m := classRe.FindStringSubmatch(code)
			stack = append(stack, &openClass{
				class:      domain.TestClass{Name: m[1], Line: lineNo, Case: isCase || strings.Contains(code, PragmaCase)},
				indent:     indent,
				bodyIndent: -1,
			})
			keep, isCase = false, false
		case defRe.MatchString(code):
			if len(stack) > 0 && stack[len(stack)-1].bodyIndent == indent {
				m := defRe.FindStringSubmatch(code)
				top := stack[len(stack)-1]
				top.class.Methods = append(top.class.Methods, domain.TestMethod{
					Name: m[1],
					Line: lineNo,
					Keep: keep || strings.Contains(code, PragmaKeep),
				})
			}
			keep, isCase = false, false
		default:
			keep, isCase = false, false
		}

		quote = openTripleQuote(code)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	closeTo(0)
	return orderByLine(classes), nil
}

// openTripleQuote returns the delimiter of a triple-quoted string left open
// at the end of the line.
func openTripleQuote(code string) string {
	for _, q := range []string{`"""`, `'''`} {
		if strings.Count(code, q)%2 == 1 {
			return q
		}
	}
	return ""
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 8 - n%8
		default:
			return n
		}
	}
	return n
}

// orderByLine restores declaration order; classes are closed innermost
// first.
func orderByLine(classes []domain.TestClass) []domain.TestClass {
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j].Line < classes[j-1].Line; j-- {
			classes[j], classes[j-1] = classes[j-1], classes[j]
		}
	}
	return classes
}
