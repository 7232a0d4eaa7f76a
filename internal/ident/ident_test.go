package ident

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stackplan "github.com/lex00/stackplan-aws-go"
)

func TestAssignPriorities(t *testing.T) {
	priorities, err := AssignPriorities([]string{"web", "api"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"web": 1, "api": 2}, priorities)
}

func TestAssignPriorities_Dense(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			keys := make([]int, n)
			for i := range keys {
				keys[i] = n - i
			}
			priorities, err := AssignPriorities(keys)
			require.NoError(t, err)
			require.Len(t, priorities, n)

			seen := make(map[int]bool, n)
			for _, p := range priorities {
				assert.GreaterOrEqual(t, p, 1)
				assert.LessOrEqual(t, p, n)
				assert.False(t, seen[p], "priority %d assigned twice", p)
				seen[p] = true
			}
		})
	}
}

func TestAssignPriorities_Pure(t *testing.T) {
	first, err := AssignPriorities([]string{"a", "b", "c"})
	require.NoError(t, err)
	second, err := AssignPriorities([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAssignPriorities_Duplicate(t *testing.T) {
	_, err := AssignPriorities([]string{"web", "api", "web"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
	assert.Contains(t, err.Error(), "web")
}

func TestAssignPriorities_Limit(t *testing.T) {
	keys := make([]int, MaxPriority+1)
	for i := range keys {
		keys[i] = i
	}
	_, err := AssignPriorities(keys)
	assert.True(t, errors.Is(err, stackplan.ErrInvalidConfiguration))
}

type named struct{ name, src string }

func nameOf(n named) string { return n.name }

func sourceOf(n named) string { return n.src }

func TestMerge_ExplicitFirst(t *testing.T) {
	explicit := []named{{"web", "file"}, {"api", "file"}}
	discovered := []named{{"worker", "dir"}}

	merged, err := Merge("task", explicit, discovered, nameOf, sourceOf)
	require.NoError(t, err)
	require.Len(t, merged, 3)
	assert.Equal(t, "web", merged[0].name)
	assert.Equal(t, "api", merged[1].name)
	assert.Equal(t, "worker", merged[2].name)
}

func TestMerge_DuplicateAcrossSources(t *testing.T) {
	explicit := []named{{"web", "file"}}
	discovered := []named{{"web", "dir"}}

	_, err := Merge("task", explicit, discovered, nameOf, sourceOf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
	assert.Contains(t, err.Error(), `task "web" declared in file and dir`)
}

func TestMerge_SourceFallback(t *testing.T) {
	_, err := Merge("task", []named{{"web", ""}}, []named{{"web", "tasks/web.yml"}}, nameOf, sourceOf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared in the config file and tasks/web.yml")

	_, err = Merge("task", nil, []named{{"web", ""}, {"web", ""}}, nameOf, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared in the config directory and the config directory")
}

func TestMerge_DuplicateWithinSource(t *testing.T) {
	_, err := Merge("service", nil, []named{{"a", "x"}, {"a", "y"}}, nameOf, sourceOf)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
}

func TestMerge_Unnamed(t *testing.T) {
	_, err := Merge("pipeline", []named{{"", "file"}}, nil, nameOf, sourceOf)
	assert.True(t, errors.Is(err, stackplan.ErrConfigurationIncomplete))
}

func TestTargetName(t *testing.T) {
	assert.Equal(t, "demo-web", TargetName("demo", "web"))
	assert.Equal(t, "my-stack-web-api", TargetName("My_Stack", "Web.API"))

	long := TargetName("a-rather-long-stack-name", "and-a-long-service")
	assert.LessOrEqual(t, len(long), MaxTargetNameLength)
	assert.NotEqual(t, byte('-'), long[len(long)-1])
}

func TestTargetNames_Collision(t *testing.T) {
	names, err := TargetNames("demo", []string{"web", "api"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"web": "demo-web", "api": "demo-api"}, names)

	_, err = TargetNames("demo", []string{"web_api", "web-api"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))

	prefix := "stack-with-a-very-long-name"
	_, err = TargetNames(prefix, []string{"service-one", "service-two"})
	assert.True(t, errors.Is(err, stackplan.ErrDuplicateIdentifier))
}

func TestLogicalID(t *testing.T) {
	tests := []struct {
		parts    []string
		expected string
	}{
		{[]string{"task", "web"}, "TaskWeb"},
		{[]string{"listener", "web-api"}, "ListenerWebApi"},
		{[]string{"Subnet", "0"}, "Subnet0"},
		{[]string{"cache", "sessions.v2"}, "CacheSessionsV2"},
		{[]string{"vpc"}, "Vpc"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, LogicalID(tt.parts...))
		})
	}
}

func TestNamer_ID(t *testing.T) {
	n := NewNamer("TaskRole")

	assert.Equal(t, "PipelineWebBuildRole", n.ID("pipeline", "web", "build role"))
	assert.Equal(t, "PipelineWebBuildRole", n.ID("pipeline", "web", "build role"), "same entry, same ID")

	apart := n.ID("pipeline", "web-build", "role")
	assert.Equal(t, "PipelineWebBuild"+NameHash("pipeline", "web-build")+"Role", apart)
	assert.Equal(t, apart, n.ID("pipeline", "web-build", "role"))

	assert.Equal(t, "TaskRole"+NameHash("task", "role"), n.ID("task", "role"))
	assert.Equal(t, "TaskWeb", n.ID("task", "web"))
}

func TestNamer_Nil(t *testing.T) {
	var n *Namer
	assert.Equal(t, "CacheSubnetGroup", n.ID("cache", "subnet-group"))
}

func TestNameHash(t *testing.T) {
	h := NameHash("task", "role")
	assert.Len(t, h, HashLength)
	assert.Equal(t, h, NameHash("task", "role"))
	assert.NotEqual(t, h, NameHash("task", "Role"))
	assert.NotEqual(t, h, NameHash("cache", "role"))
}
