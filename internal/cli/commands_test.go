package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-asdf/archive"
	"github.com/robert-malhotra/go-asdf/event"
	"github.com/robert-malhotra/go-asdf/stream"
)

func TestInfoGolden(t *testing.T) {
	path := writeFixture(t)

	stdout, _, err := execute(t, "info", path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "info", []byte(stdout))
}

func TestInfoJSON(t *testing.T) {
	path := writeFixture(t)

	stdout, _, err := execute(t, "--format", "json", "info", path)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   InfoResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.0.3", resp.Data.FormatVersion)
	require.Len(t, resp.Data.Stations, 2)
	assert.Equal(t, "CI.CLC", resp.Data.Stations[0].Station)
	require.Len(t, resp.Data.Stations[0].Tags, 2)
	assert.Equal(t, "clc_1", resp.Data.Stations[0].Tags[1].Tag)
	assert.Equal(t, []string{"clc_1"}, resp.Data.Provenance)
}

func TestInfoNotArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, _, err := execute(t, "info", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDetect(t *testing.T) {
	good := writeFixture(t)
	bad := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))

	stdout, _, err := execute(t, "detect", good)
	require.NoError(t, err)
	assert.Equal(t, good+": asdf\n", stdout)

	stdout, _, err = execute(t, "detect", good, bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, good+": asdf\n"+bad+": not asdf\n", stdout)
}

func TestDetectJSONKeepsOrder(t *testing.T) {
	good := writeFixture(t)
	dir := t.TempDir()

	paths := []string{filepath.Join(dir, "missing-a.h5"), good, filepath.Join(dir, "missing-b.h5"), good}
	stdout, _, err := execute(t, append([]string{"--format", "json", "detect"}, paths...)...)
	require.Error(t, err)

	var resp struct {
		Data []DetectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 4)
	for i, r := range resp.Data {
		assert.Equal(t, paths[i], r.Path)
		assert.Equal(t, paths[i] == good, r.ASDF)
	}
}

func TestDump(t *testing.T) {
	path := writeFixture(t)

	stdout, _, err := execute(t, "dump", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Superblock version: 3\n")
	assert.Contains(t, stdout, `Group "/Waveforms/CI.CLC"`)
	assert.Contains(t, stdout, "@file_format = ASDF")
	assert.Contains(t, stdout, "filters=[gzip-3]")

	stdout, _, err = execute(t, "--format", "json", "dump", "--max-depth", "1", path)
	require.NoError(t, err)

	var resp struct {
		Data DumpResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	for _, obj := range resp.Data.Objects {
		assert.LessOrEqual(t, depthOf(obj.Path), 1, obj.Path)
	}
	assert.Equal(t, "/", resp.Data.Objects[0].Path)
}

func TestExport(t *testing.T) {
	path := writeFixture(t)
	out := filepath.Join(t.TempDir(), "export.json")

	_, _, err := execute(t, "export", "--samples", "-o", out, path)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var streams []ExportStream
	require.NoError(t, json.Unmarshal(data, &streams))
	require.Len(t, streams, 3)

	assert.False(t, streams[0].Processed)
	assert.True(t, streams[1].Processed)
	assert.Equal(t, 0.1, streams[1].Traces[0].ProcessingParameters["corner_frequency"])
	require.NotNil(t, streams[1].Traces[0].Software)
	assert.Equal(t, archive.Software.Name, streams[1].Traces[0].Software.Name)
	assert.Len(t, streams[2].Traces[0].Data, 200)
	assert.Equal(t, "CI.SRT.--.HNZ", streams[2].Traces[0].ID)
}

func TestExportWithoutSamples(t *testing.T) {
	path := writeFixture(t)

	stdout, _, err := execute(t, "export", path)
	require.NoError(t, err)

	var streams []ExportStream
	require.NoError(t, json.Unmarshal([]byte(stdout), &streams))
	require.Len(t, streams, 3)
	assert.Nil(t, streams[0].Traces[0].Data)
	assert.Equal(t, 500, streams[0].Traces[0].Samples)
}

func TestRepack(t *testing.T) {
	src := writeFixture(t)
	dir := t.TempDir()
	dst := filepath.Join(dir, "copy.h5")
	cfg := filepath.Join(dir, "asdf.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("compression: 0\nshuffle: false\n"), 0o644))

	stdout, _, err := execute(t, "--config", cfg, "repack", src, dst)
	require.NoError(t, err)
	assert.Contains(t, stdout, "3 streams")

	want, err := archive.Read(src)
	require.NoError(t, err)
	got, err := archive.Read(dst)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Len(), got[i].Len())
		for j := range want[i].Traces {
			assert.Equal(t, want[i].Traces[j].Data, got[i].Traces[j].Data)
			assert.Equal(t, want[i].Traces[j].Stats.ProcessingParameters, got[i].Traces[j].Stats.ProcessingParameters)
		}
	}

	stdout, _, err = execute(t, "dump", dst)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "filters=")

	stdout, _, err = execute(t, "--format", "json", "info", dst)
	require.NoError(t, err)
	assert.Contains(t, stdout, "smi:local/ci38457511")
}

func TestRepackKeepsRevisionsAndEvents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "revisions.h5")

	first := fixtureTrace("CLC", "HNE", 300, 100)
	first.Stats.ProcessingParameters = stream.Parameters{"pass": int64(1)}
	second := fixtureTrace("CLC", "HNE", 300, 100)
	second.Stats.ProcessingParameters = stream.Parameters{"pass": int64(2)}
	ev1 := &event.Event{ID: "smi:local/ev1", Time: t0, Magnitude: 4.2, MagnitudeType: "ML"}
	ev2 := &event.Event{ID: "smi:local/ev2", Time: t0.Add(time.Hour), Magnitude: 5.0, MagnitudeType: "Mw"}

	cfg := archive.DefaultConfig()
	require.NoError(t, archive.Write(src, []*stream.Stream{stream.New(first)}, ev1, archive.WithConfig(cfg)))
	cfg.Revision = 2
	require.NoError(t, archive.Write(src, []*stream.Stream{stream.New(second)}, ev2, archive.WithConfig(cfg)))

	dst := filepath.Join(dir, "copy.h5")
	stdout, _, err := execute(t, "--format", "json", "repack", src, dst)
	require.NoError(t, err)

	var resp struct {
		Data RepackResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 2, resp.Data.Streams)
	assert.Equal(t, 2, resp.Data.Events)
	assert.Equal(t, 2, resp.Data.Provenance)

	got, err := archive.Read(dst)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, stream.Parameters{"pass": int64(1)}, got[0].Traces[0].Stats.ProcessingParameters)
	assert.Equal(t, stream.Parameters{"pass": int64(2)}, got[1].Traces[0].Stats.ProcessingParameters)

	stdout, _, err = execute(t, "--format", "json", "info", dst)
	require.NoError(t, err)
	assert.Contains(t, stdout, "smi:local/ev1")
	assert.Contains(t, stdout, "smi:local/ev2")
}

func TestRepackBadConfig(t *testing.T) {
	src := writeFixture(t)
	cfg := filepath.Join(t.TempDir(), "asdf.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("compression: 42\n"), 0o644))

	_, _, err := execute(t, "--config", cfg, "repack", src, filepath.Join(t.TempDir(), "copy.h5"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
