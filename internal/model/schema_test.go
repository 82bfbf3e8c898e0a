package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	return NewSchema([]SchemaField{
		{Path: "patient.name", Kind: KindString},
		{Path: "patient.age.num", Kind: KindInt},
		{Path: "serum.amount", Kind: KindFloat},
		{Path: "is_dead", Kind: KindBool},
		{Path: "hospital_stay.in_date", Kind: KindDate},
		{Path: "diagnoses.top", Kind: KindList},
	})
}

func TestSchemaByPath(t *testing.T) {
	t.Parallel()
	s := testSchema(t)

	t.Run("exact path", func(t *testing.T) {
		t.Parallel()
		f := s.ByPath("patient.age.num")
		require.NotNil(t, f)
		assert.Equal(t, KindInt, f.Kind)
	})

	t.Run("list element path resolves to the list field", func(t *testing.T) {
		t.Parallel()
		f := s.ByPath("diagnoses.top.0")
		require.NotNil(t, f)
		assert.Equal(t, "diagnoses.top", f.Path)
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, s.ByPath("patient.shoe_size"))
	})
}

func TestSchemaParseValue(t *testing.T) {
	t.Parallel()
	s := testSchema(t)

	t.Run("int", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("patient.age.num", "42")
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		_, err = s.ParseValue("patient.age.num", "fyrre")
		assert.Error(t, err)
	})

	t.Run("float", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("serum.amount", "12.5")
		require.NoError(t, err)
		assert.Equal(t, 12.5, v)
	})

	t.Run("bool", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("is_dead", "TRUE")
		require.NoError(t, err)
		assert.Equal(t, true, v)
	})

	t.Run("date", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("hospital_stay.in_date", "1887-03-14")
		require.NoError(t, err)
		assert.Equal(t, "1887-03-14", v)

		_, err = s.ParseValue("hospital_stay.in_date", "14/03/1887")
		assert.Error(t, err)
	})

	t.Run("unknown path passes through", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("patient.shoe_size", "43")
		require.NoError(t, err)
		assert.Equal(t, "43", v)
	})

	t.Run("empty input is an empty string", func(t *testing.T) {
		t.Parallel()
		v, err := s.ParseValue("patient.age.num", "  ")
		require.NoError(t, err)
		assert.Equal(t, "", v)
	})
}

func TestDefaultSchema(t *testing.T) {
	t.Parallel()

	s := DefaultSchema()
	require.NotEmpty(t, s.Fields)
	assert.NotNil(t, s.ByPath("patient.name"))
	assert.NotNil(t, s.ByPath("diagnoses.top"))
}

func TestLoadSchemaFile(t *testing.T) {
	t.Parallel()

	t.Run("kind defaults to string", func(t *testing.T) {
		t.Parallel()
		s, err := LoadSchemaFile([]byte("fields:\n  - path: patient.name\n"))
		require.NoError(t, err)
		f := s.ByPath("patient.name")
		require.NotNil(t, f)
		assert.Equal(t, KindString, f.Kind)
	})

	t.Run("empty schema rejected", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSchemaFile([]byte("version: 1\n"))
		assert.Error(t, err)
	})

	t.Run("bad yaml rejected", func(t *testing.T) {
		t.Parallel()
		_, err := LoadSchemaFile([]byte("fields: ["))
		assert.Error(t, err)
	})
}
