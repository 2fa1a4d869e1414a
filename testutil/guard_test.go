package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package x\nimport (\n\t\"fmt\"\n\t\"claimcore/internal/core\"\n)\nvar _ = fmt.Sprint\nvar _ core.Service\n")
	writeGo(t, dir, "a_test.go", "package x\nimport _ \"claimcore/internal/adapters/httpapi\"\n")
	writeGo(t, dir, "notes.txt", "ignored")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	require.NoError(t, err)
	assert.Equal(t, []string{"claimcore/internal/core (in a.go)"}, viols)

	viols, err = directImportViolations(dir, AdapterImportForbidden)
	require.NoError(t, err)
	assert.Empty(t, viols)

	_, err = directImportViolations(filepath.Join(dir, "missing"), InternalImportForbidden)
	assert.Error(t, err)
}

func TestPredicates(t *testing.T) {
	assert.True(t, PackageImportForbidden("claimcore/internal/core")("claimcore/internal/core"))
	assert.False(t, PackageImportForbidden("claimcore/internal/core")("claimcore/internal/corex"))
	assert.True(t, AdapterImportForbidden("claimcore/internal/adapters/exports"))
	assert.False(t, InternalImportForbidden("claimcore/pkg/domain"))
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfViolations(rec, "layering", nil)
	assert.Empty(t, rec.msg)
	failIfViolations(rec, "layering", []string{"x (in a.go)"})
	assert.Contains(t, rec.msg, "layering")
}
