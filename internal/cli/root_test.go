package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "asdf", cmd.Use)
	assert.Contains(t, cmd.Long, "StationXML")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"detect", "info", "dump", "export", "repack"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)

	samplesFlag := exportCmd.Flags().Lookup("samples")
	require.NotNil(t, samplesFlag)
	assert.Equal(t, "false", samplesFlag.DefValue)
}

func TestDumpCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	dumpCmd, _, err := cmd.Find([]string{"dump"})
	require.NoError(t, err)

	depthFlag := dumpCmd.Flags().Lookup("max-depth")
	require.NotNil(t, depthFlag)
	assert.Equal(t, "20", depthFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "info", "whatever.h5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestWriteConfigDefault(t *testing.T) {
	opts := &RootOptions{}
	cfg, err := opts.WriteConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Compression)

	opts.Config = "/nonexistent/asdf.yaml"
	_, err = opts.WriteConfig()
	require.Error(t, err)
}

func TestLogger(t *testing.T) {
	assert.NotNil(t, (&RootOptions{}).Logger())
	assert.NotNil(t, (&RootOptions{Verbose: true}).Logger())
}
