package join

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type class struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	InstructorID *string `json:"instructor_id"`
}

type classView struct {
	class
	Instructor *profile
}

func strPtr(s string) *string { return &s }

func attachInstructors(in []classView, idx map[string]profile) []classView {
	return Attach(in, idx,
		func(c classView) (string, bool) { return Present(c.InstructorID) },
		func(c *classView, p *profile) { c.Instructor = p })
}

func TestAttachIsIdempotent(t *testing.T) {
	idx := Index([]profile{{ID: "i1", FirstName: "Jane"}}, func(p profile) string { return p.ID })
	input := []classView{
		{class: class{ID: "c1", InstructorID: strPtr("i1")}},
		{class: class{ID: "c2", InstructorID: strPtr("i2")}},
	}

	once := attachInstructors(input, idx)
	twice := attachInstructors(once, idx)
	assert.Equal(t, once, twice)
	assert.Nil(t, input[0].Instructor, "input must not be mutated")
}

func TestAttachKeepsUnresolvedRecords(t *testing.T) {
	idx := Index([]profile{{ID: "i1", FirstName: "Jane"}}, func(p profile) string { return p.ID })
	input := []classView{
		{class: class{ID: "c1", InstructorID: strPtr("i1")}},
		{class: class{ID: "c2", InstructorID: strPtr("ghost")}},
		{class: class{ID: "c3"}},
	}

	out := attachInstructors(input, idx)
	require.Len(t, out, 3)
	require.NotNil(t, out[0].Instructor)
	assert.Equal(t, "Jane", out[0].Instructor.FirstName)
	assert.Nil(t, out[1].Instructor)
	assert.Nil(t, out[2].Instructor)

	name := func(v classView) string {
		if v.Instructor == nil {
			return NameOr("")
		}
		return NameOr(v.Instructor.FirstName)
	}
	assert.Equal(t, NotAssigned, name(out[1]))
	assert.Equal(t, NotAssigned, name(out[2]))
}

func TestKeysAreDistinctAndSkipMissing(t *testing.T) {
	classes := []class{
		{ID: "c1", InstructorID: strPtr("i1")},
		{ID: "c2", InstructorID: strPtr("i1")},
		{ID: "c3"},
		{ID: "c4", InstructorID: strPtr("i2")},
	}
	keys := Keys(classes, func(c class) (string, bool) { return Present(c.InstructorID) })
	assert.Equal(t, []string{"i1", "i2"}, keys)
}

func TestGroupPreservesOrder(t *testing.T) {
	type lesson struct{ ModuleID, Title string }
	groups := Group([]lesson{{"m1", "a"}, {"m2", "b"}, {"m1", "c"}}, func(l lesson) string { return l.ModuleID })
	assert.Equal(t, []lesson{{"m1", "a"}, {"m1", "c"}}, groups["m1"])
	assert.Len(t, groups["m2"], 1)
}

func TestOneNormalisesShapes(t *testing.T) {
	cases := map[string]*string{
		`{"id":"c1","title":"Scratch"}`:   strPtr("c1"),
		`[{"id":"c1","title":"Scratch"}]`: strPtr("c1"),
		`[]`:                              nil,
		`null`:                            nil,
	}
	for raw, want := range cases {
		var o One[class]
		require.NoError(t, json.Unmarshal([]byte(raw), &o), raw)
		if want == nil {
			assert.Nil(t, o.Get(), raw)
			continue
		}
		require.NotNil(t, o.Get(), raw)
		assert.Equal(t, *want, o.Get().ID)
	}
}

func TestOneScan(t *testing.T) {
	var o One[class]
	require.NoError(t, o.Scan([]byte(`[{"id":"c9"}]`)))
	require.NotNil(t, o.Value)
	assert.Equal(t, "c9", o.Value.ID)

	require.NoError(t, o.Scan(nil))
	assert.Nil(t, o.Value)

	assert.Error(t, o.Scan(42))
}

func TestOneMarshal(t *testing.T) {
	out, err := json.Marshal(One[class]{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
