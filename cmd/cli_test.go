package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mawngo/kcluster/internal/service"
)

const blogs = `Blog;china;kids;music;yahoo
Boing Boing;0;2;24;3
Slashdot;1;0;9;7
The Superficial;0;0;3;1
Wonkette;4;1;0;2
`

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogdata.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cli := NewCLI()
	buf := new(bytes.Buffer)
	cli.command.SetOut(buf)
	cli.command.SetErr(buf)
	cli.command.SetArgs(args)
	err := cli.command.Execute()
	return buf.String(), err
}

func TestRun_Text(t *testing.T) {
	out, err := execute(t, "run", "--data", writeCorpus(t, blogs), "--seed", "3", "-k", "2", "-i", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "Cluster 1 (")
	assert.Contains(t, out, "Cluster 2 (")
	for _, name := range []string{"Boing Boing", "Slashdot", "The Superficial", "Wonkette"} {
		assert.Contains(t, out, "  - "+name+"\n")
	}
}

func TestRun_JSON(t *testing.T) {
	out, err := execute(t, "run", "-d", writeCorpus(t, blogs), "--seed", "3", "-k", "3", "-i", "0", "--json")
	require.NoError(t, err)

	var groups [][]string
	require.NoError(t, json.Unmarshal([]byte(out), &groups))
	assert.Equal(t, [][]string{{}, {}, {}}, groups)
}

func TestRun_SeedIsReproducible(t *testing.T) {
	path := writeCorpus(t, blogs)
	a, err := execute(t, "run", "-d", path, "--seed", "11", "-k", "2", "-i", "4", "--json")
	require.NoError(t, err)
	b, err := execute(t, "run", "-d", path, "--seed", "11", "-k", "2", "-i", "4", "--json")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_Charts(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "clusters.html")
	png := filepath.Join(dir, "clusters.png")

	_, err := execute(t, "run", "-d", writeCorpus(t, blogs), "--seed", "1", "-k", "2", "-i", "2",
		"--html", html, "--png", png)
	require.NoError(t, err)
	assert.FileExists(t, html)
	assert.FileExists(t, png)
}

func TestRun_Separator(t *testing.T) {
	path := writeCorpus(t, "title,a,b,c\nx,1,0,0\ny,0,1,0\n")
	out, err := execute(t, "run", "-d", path, "--separator", ",", "--name-column", "title", "-k", "1", "-i", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cluster 1 (2)")
}

func TestRun_InvalidClusters(t *testing.T) {
	_, err := execute(t, "run", "-d", writeCorpus(t, blogs), "-k", "9", "-i", "1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = execute(t, "run", "-d", writeCorpus(t, blogs), "-k", "0", "-i", "1")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestRun_MissingData(t *testing.T) {
	_, err := execute(t, "run", "-d", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_BadSeparator(t *testing.T) {
	_, err := execute(t, "run", "-d", writeCorpus(t, blogs), "--separator", ";;")
	assert.ErrorContains(t, err, "separator")
}

func TestServe_Flags(t *testing.T) {
	cli := NewCLI()
	serve, _, err := cli.command.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serve.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "a", flag.Shorthand)
	assert.Equal(t, ":8080", flag.DefValue)
}
