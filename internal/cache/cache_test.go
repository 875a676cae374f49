package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockedby/resolver-os/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercase unchanged", input: "foo", want: "foo"},
		{name: "uppercase lowered", input: "FOO", want: "foo"},
		{name: "at prefix stripped", input: "@Foo", want: "foo"},
		{name: "only first at stripped", input: "@@foo", want: "@foo"},
		{name: "mixed case", input: "@JaneDoe", want: "janedoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStore_CaseInsensitiveLookup(t *testing.T) {
	s := NewStore()
	rec := models.ChatRecord{FirstName: "Jane", Kind: models.KindPrivate, ChatID: 555}

	s.Put("@Jane", rec)

	for _, username := range []string{"jane", "JANE", "@jane", "@Jane"} {
		got, ok := s.Get(username)
		require.True(t, ok, "lookup %q should hit", username)
		assert.Equal(t, rec, got)
	}
	assert.Equal(t, 1, s.Len())
}

func TestStore_PutOverwrites(t *testing.T) {
	s := NewStore()
	s.Put("foo", models.ChatRecord{FirstName: "Old", Kind: models.KindChannel, ChatID: 1})
	s.Put("FOO", models.ChatRecord{FirstName: "New", Kind: models.KindChannel, ChatID: 2})

	got, ok := s.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "New", got.FirstName)
	assert.Equal(t, int64(2), got.ChatID)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore()
	s.Put("foo", models.ChatRecord{FirstName: "Foo", Kind: models.KindChannel, ChatID: 1})

	snap := s.Snapshot()
	snap["bar"] = models.ChatRecord{FirstName: "Bar"}

	_, ok := s.Get("bar")
	assert.False(t, ok, "mutating the snapshot must not touch the store")
	assert.Equal(t, 1, s.Len())
}

func TestStore_SeedNormalizesKeys(t *testing.T) {
	s := NewStore()
	s.Seed(map[string]models.ChatRecord{
		"@Legacy": {FirstName: "Legacy", Kind: models.KindPrivate, ChatID: 7},
	})

	got, ok := s.Get("legacy")
	require.True(t, ok)
	assert.Equal(t, "Legacy", got.FirstName)
}
