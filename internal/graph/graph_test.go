package graph_test

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volgraph/volgraph/internal/graph"
	"github.com/volgraph/volgraph/internal/xlator"
	_ "github.com/volgraph/volgraph/internal/xlators/trace"
)

const sampleSpec = `
# comment line
volume leaf
    type debug/trace
    option foo bar
end-volume

volume top
    type debug/trace
    option greeting hello world
    subvolumes leaf
end-volume
`

func TestParseBasic(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "leaf", specs[0].Name)
	assert.Equal(t, "debug/trace", specs[0].Type)
	assert.Equal(t, []graph.OptionSpec{{Key: "foo", Value: "bar"}}, specs[0].Options)
	assert.Equal(t, "top", specs[1].Name)
	assert.Equal(t, []string{"leaf"}, specs[1].Subvolumes)
	assert.Equal(t, "hello world", specs[1].Options[0].Value)
}

func TestUnresolvedSubvolumeFails(t *testing.T) {
	_, err := graph.Parse(strings.NewReader(`
volume top
    type debug/trace
    subvolumes nonexistent
end-volume
`))
	require.NoError(t, err) // parse stage doesn't resolve references
	_, err = graph.Build([]graph.VolumeSpec{{Name: "top", Type: "debug/trace", Subvolumes: []string{"nonexistent"}}}, graph.Options{})
	assert.ErrorIs(t, err, graph.ErrUnresolvedSubvolume)
}

func TestTopDefaultsToLastDeclared(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	top, err := graph.Build(specs, graph.Options{Logger: logrus.New()})
	require.NoError(t, err)
	assert.Equal(t, "top", top.Name())
	child, err := xlator.SoleChild(top)
	require.NoError(t, err)
	assert.Equal(t, "leaf", child.Name())
}

func TestVolumeNameOverride(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	top, err := graph.Build(specs, graph.Options{Logger: logrus.New(), VolumeName: "leaf"})
	require.NoError(t, err)
	assert.Equal(t, "leaf", top.Name())
}

func TestCmdlineOverrideShadowsFileOption(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	override, err := graph.ParseOverride("leaf.foo=shadowed")
	require.NoError(t, err)
	top, err := graph.Build(specs, graph.Options{Logger: logrus.New(), Overrides: []graph.OptionOverride{override}})
	require.NoError(t, err)
	child, err := xlator.SoleChild(top)
	require.NoError(t, err)
	assert.Equal(t, "shadowed", child.Options().GetString("foo", ""))
}

func TestInitGraphPostOrderAndParentUp(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	top, err := graph.Build(specs, graph.Options{Logger: logrus.New()})
	require.NoError(t, err)

	require.NoError(t, graph.InitGraph(top))
	assert.True(t, top.Ready())
	child, _ := xlator.SoleChild(top)
	assert.True(t, child.Ready())

	require.NoError(t, graph.PropagateParentUp(top))
}

// Building the same graph from the same spec twice yields isomorphic trees.
func TestBuildIsIsomorphicAcrossRuns(t *testing.T) {
	specs, err := graph.Parse(strings.NewReader(sampleSpec))
	require.NoError(t, err)

	top1, err := graph.Build(specs, graph.Options{Logger: logrus.New()})
	require.NoError(t, err)
	top2, err := graph.Build(specs, graph.Options{Logger: logrus.New()})
	require.NoError(t, err)

	assert.Equal(t, top1.Name(), top2.Name())
	assert.Equal(t, top1.Type(), top2.Type())
	c1, _ := xlator.SoleChild(top1)
	c2, _ := xlator.SoleChild(top2)
	assert.Equal(t, c1.Name(), c2.Name())
	assert.Equal(t, c1.Options().GetString("foo", ""), c2.Options().GetString("foo", ""))
}

func TestUnknownTypeFailsAtLoad(t *testing.T) {
	_, err := graph.Build([]graph.VolumeSpec{{Name: "x", Type: "nonexistent/type"}}, graph.Options{Logger: logrus.New()})
	assert.Error(t, err)
}
