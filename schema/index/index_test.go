package index_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/minorm/schema/index"
)

func TestIndexFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		build    func() *index.Descriptor
		validate func(t *testing.T, desc *index.Descriptor)
	}{
		{
			name: "single_field",
			build: func() *index.Descriptor {
				return index.Fields("name").Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.Equal(t, []string{"name"}, desc.Fields)
				assert.Equal(t, []bool{false}, desc.Desc)
				assert.False(t, desc.Unique)
				assert.Equal(t, index.KindIndex, desc.Kind)
				assert.Empty(t, desc.StorageKey)
			},
		},
		{
			name: "composite_unique_index",
			build: func() *index.Descriptor {
				return index.Fields("first", "last").Unique().Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.Equal(t, []string{"first", "last"}, desc.Fields)
				assert.True(t, desc.Unique)
				assert.Equal(t, index.KindUnique, desc.Kind)
			},
		},
		{
			name: "primary",
			build: func() *index.Descriptor {
				return index.Fields("id").Primary().Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.True(t, desc.Unique)
				assert.Equal(t, index.KindPrimary, desc.Kind)
			},
		},
		{
			name: "desc",
			build: func() *index.Descriptor {
				return index.Fields("a", "b").Desc().Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.Equal(t, []bool{true, true}, desc.Desc)
			},
		},
		{
			name: "desc_field",
			build: func() *index.Descriptor {
				return index.Fields("a", "b").DescField("b").Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.Equal(t, []bool{false, true}, desc.Desc)
			},
		},
		{
			name: "unique_with_storage_key",
			build: func() *index.Descriptor {
				return index.Fields("email").
					Unique().
					StorageKey("idx_unique_email").
					Descriptor()
			},
			validate: func(t *testing.T, desc *index.Descriptor) {
				assert.True(t, desc.Unique)
				assert.Equal(t, "idx_unique_email", desc.StorageKey)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, tt.build())
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "INDEX", index.KindIndex.String())
	assert.Equal(t, "UNIQUE", index.KindUnique.String())
	assert.Equal(t, "PRIMARY", index.KindPrimary.String())
	assert.Equal(t, "OTHER", index.KindOther.String())
}
