package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/xstream/internal/build"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	root := NewRootCommand()
	root.AddCommand(NewVersionCommand(), NewInfoCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	require.Contains(t, out, "xstream version "+build.Version)
	require.Contains(t, out, "commit id "+build.Commit)
}

func TestInfoCommand(t *testing.T) {
	out := execute(t, "info", "--devices=2")

	require.Contains(t, out, "backend: host(devices=2, workers=1)")
	require.Contains(t, out, "active device: 1")
	require.Contains(t, out, "DEVICE")
	require.Contains(t, out, "host")
	for _, name := range []string{"char", "i8", "i64", "u32", "f64", "c64"} {
		require.Contains(t, out, name)
	}
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", format(512))
	require.Equal(t, "1.0 KiB", format(1024))
	require.Equal(t, "1.5 MiB", format(3*512*1024))
}
