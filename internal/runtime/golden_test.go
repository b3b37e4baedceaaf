package runtime

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// goldenTest runs a .lox file and compares its output to a .expected file.
// When the program ends in a runtime error, the error text is appended to
// the output the way the driver prints it.
func goldenTest(t *testing.T, name string) {
	t.Helper()

	loxPath := filepath.Join("..", "..", "testdata", name+".lox")
	expectedPath := filepath.Join("..", "..", "testdata", name+".expected")

	source, err := os.ReadFile(loxPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", loxPath, err)
	}

	expected, err := os.ReadFile(expectedPath)
	if err != nil {
		t.Fatalf("failed to read %s: %v", expectedPath, err)
	}

	got, err := runSource(t, string(source))
	if err != nil {
		got += err.Error() + "\n"
	}

	expectedStr := strings.TrimRight(string(expected), "\n")
	gotStr := strings.TrimRight(got, "\n")

	if gotStr != expectedStr {
		expectedLines := strings.Split(expectedStr, "\n")
		gotLines := strings.Split(gotStr, "\n")

		t.Errorf("output mismatch for %s", name)
		maxLines := len(expectedLines)
		if len(gotLines) > maxLines {
			maxLines = len(gotLines)
		}
		for i := 0; i < maxLines; i++ {
			var exp, g string
			if i < len(expectedLines) {
				exp = expectedLines[i]
			} else {
				exp = "<missing>"
			}
			if i < len(gotLines) {
				g = gotLines[i]
			} else {
				g = "<missing>"
			}
			prefix := "  "
			if exp != g {
				prefix = "! "
			}
			t.Logf("%sline %d: expected=%q got=%q", prefix, i+1, exp, g)
		}
	}
}

func TestGoldenScopes(t *testing.T) {
	goldenTest(t, "golden_scopes")
}

func TestGoldenFor(t *testing.T) {
	goldenTest(t, "golden_for")
}

func TestGoldenLogical(t *testing.T) {
	goldenTest(t, "golden_logical")
}

func TestGoldenArithmetic(t *testing.T) {
	goldenTest(t, "golden_arithmetic")
}

func TestGoldenRuntimeError(t *testing.T) {
	goldenTest(t, "golden_runtime_error")
}
