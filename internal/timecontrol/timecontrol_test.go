package timecontrol

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tc, err := Parse("3+2")
	require.NoError(t, err)
	require.Equal(t, 3*time.Minute, tc.Initial)
	require.Equal(t, 2*time.Second, tc.Increment)
	require.Equal(t, "3+2", tc.String())

	tc, err = Parse(" 15 ")
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, tc.Initial)
	require.Zero(t, tc.Increment)

	for _, bad := range []string{"", "0+5", "-1+0", "x+1", "5+-1", "5+x", "181+0", "5+181"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestString_SubMinute(t *testing.T) {
	tc := TimeControl{Initial: 90 * time.Second, Increment: time.Second}
	require.Equal(t, "1m30s+1", tc.String())
}

func TestCatalog_Embedded(t *testing.T) {
	c, err := New("")
	require.NoError(t, err)
	require.Equal(t, []string{"blitz", "bullet", "classical", "rapid"}, c.Names())

	tc, err := c.Resolve(" Blitz ")
	require.NoError(t, err)
	require.Equal(t, "blitz", tc.Name)
	require.Equal(t, 3*time.Minute, tc.Initial)
	require.Equal(t, 2*time.Second, tc.Increment)

	tc, err = c.Resolve("7+3")
	require.NoError(t, err)
	require.Empty(t, tc.Name)
	require.Equal(t, 7*time.Minute, tc.Initial)

	_, err = c.Resolve("hyperbullet")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCatalog_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("blitz: \"5+0\"\nmarathon: \"120+30\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	c, err := New(dir)
	require.NoError(t, err)
	tc, err := c.Resolve("blitz")
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, tc.Initial)
	tc, err = c.Resolve("marathon")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, tc.Increment)
}

func TestCatalog_DuplicateOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("blitz: \"5+0\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yml"), []byte("blitz: \"4+0\"\n"), 0o600))

	_, err := New(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate preset")
}

func TestCatalog_BadOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("blitz: \"fast\"\n"), 0o600))
	_, err := New(dir)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = New(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
