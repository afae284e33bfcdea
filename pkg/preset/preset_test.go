package preset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/tinyland/lab/gridkit/pkg/pipeline"
)

func TestGetFallsBackToDefault(t *testing.T) {
	p := Get("no-such-preset")
	require.Equal(t, "default", p.Name)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.Contains(t, names, "default")
	require.Contains(t, names, "hogs")
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i])
	}
}

func TestNormalizeDirections(t *testing.T) {
	p := prNormalize(ViewPreset{Sorts: []SortSlot{
		{Column: "cpu", Direction: "desc"},
		{Column: "name", Direction: "ASC"},
		{Column: "mem"},
		{Direction: "desc"},
	}})
	require.Equal(t, []SortSlot{
		{Column: "cpu", Direction: string(pipeline.Descending)},
		{Column: "name", Direction: string(pipeline.Ascending)},
		{Column: "mem", Direction: string(pipeline.Ascending)},
	}, p.Sorts)
}

func TestLoadFromTOML(t *testing.T) {
	data := []byte(`
[[presets]]
name = "mine"
description = "custom view"
page_size = 10

[[presets.sorts]]
column = "mem"
direction = "desc"

[[presets.sorts]]
column = "name"
`)
	loaded, err := LoadFromTOML(data)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	p := loaded[0]
	require.Equal(t, "mine", p.Name)
	require.Equal(t, 10, p.PageSize)
	require.Len(t, p.Sorts, 2)
	require.Equal(t, "desc", p.Sorts[0].Direction)
	// Missing direction defaults to ascending.
	require.Equal(t, "asc", p.Sorts[1].Direction)
}

func TestLoadFromTOMLMissingName(t *testing.T) {
	_, err := LoadFromTOML([]byte("[[presets]]\npage_size = 5\n"))
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	in := []ViewPreset{{
		Name:     "rt",
		Filters:  `{"name":{"columnName":"name","filterType":"text","conditions":[{"field":"name","operator":"contains","value":"go"}],"isActive":true}}`,
		Sorts:    []SortSlot{{Column: "name", Direction: "asc"}},
		PageSize: 20,
	}}
	data, err := SaveTOML(in)
	require.NoError(t, err)

	out, err := LoadFromTOML(data)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestApplyConfiguresStore(t *testing.T) {
	st := pipeline.NewStore(pipeline.MapAccessor("id"), pipeline.Config{})
	defer st.Close()

	st.SetData([]pipeline.MapRow{
		{"id": "1", "name": "alpha", "cpu": 2.0},
		{"id": "2", "name": "beta", "cpu": 0.1},
		{"id": "3", "name": "gamma", "cpu": 9.0},
	})

	Apply(Get("hogs"), st)

	require.Equal(t, []string{"3", "1"}, st.DisplayIDs())
	require.Equal(t, 25, st.Pagination().PageSize)

	cap, err := Capture("mine", "", st)
	require.NoError(t, err)
	require.Equal(t, 25, cap.PageSize)
	require.Equal(t, "cpu", cap.Sorts[0].Column)
	require.NotEmpty(t, cap.Filters)
}
