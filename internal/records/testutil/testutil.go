package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/steviecodesit/ourhome/internal/records"
)

// MustOpenTestStore opens an isolated in-memory SQLite record store for the test.
func MustOpenTestStore(t *testing.T) *records.GormStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	store, err := records.Open(records.Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, err)
	return store
}
