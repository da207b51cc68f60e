package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func Test_SeedDefaults_Idempotent(t *testing.T) {
	req := require.New(t)
	lookup := NewLookup(openTestDB(t), slog.Default())

	req.NoError(lookup.SeedDefaults())
	req.NoError(lookup.SeedDefaults())

	langs, err := lookup.Languages()
	req.NoError(err)
	req.Len(langs, len(DefaultLanguages))
}

func Test_LanguageID_NormalizedMatch(t *testing.T) {
	req := require.New(t)
	lookup := NewLookup(openTestDB(t), slog.Default())
	req.NoError(lookup.SeedDefaults())

	id, ok := lookup.LanguageID("Italiano")
	req.True(ok)
	req.Equal(8, id)

	// Lookup goes through the same normalization as user IDs.
	id, ok = lookup.LanguageID("  ITALIANO ")
	req.True(ok)
	req.Equal(8, id)

	_, ok = lookup.LanguageID("klingon")
	req.False(ok)
}

func Test_LanguageByISO(t *testing.T) {
	req := require.New(t)
	lookup := NewLookup(openTestDB(t), slog.Default())
	req.NoError(lookup.SeedDefaults())

	lang, err := lookup.LanguageByISO("FR")
	req.NoError(err)
	req.Equal("French", lang.Name)

	_, err = lookup.LanguageByISO("xx")
	req.Error(err)
}

func Test_Translations_AcrossLanguages(t *testing.T) {
	req := require.New(t)
	lookup := NewLookup(openTestDB(t), slog.Default())
	req.NoError(lookup.SeedDefaults())

	names := []Name{
		{Category: "move", LanguageID: 9, EntityID: 33, Text: "Tackle"},
		{Category: "move", LanguageID: 8, EntityID: 33, Text: "Azione"},
		{Category: "move", LanguageID: 5, EntityID: 33, Text: "Charge"},
		// Same spelling in a different category, distinct entity.
		{Category: "ability", LanguageID: 9, EntityID: 7, Text: "Tackle"},
		{Category: "ability", LanguageID: 8, EntityID: 7, Text: "Carica"},
	}
	for _, n := range names {
		req.NoError(lookup.PutName(n))
	}

	out, err := lookup.Translations("tackle", []int{8})
	req.NoError(err)
	req.Len(out, 2)
	texts := []string{out[0].Text, out[1].Text}
	req.ElementsMatch([]string{"Azione", "Carica"}, texts)

	// The source language never echoes back.
	out, err = lookup.Translations("azione", []int{8, 5})
	req.NoError(err)
	req.Len(out, 1)
	req.Equal("Charge", out[0].Text)
}

func Test_Translations_UnknownWord(t *testing.T) {
	req := require.New(t)
	lookup := NewLookup(openTestDB(t), slog.Default())

	out, err := lookup.Translations("missingno", []int{9})
	req.NoError(err)
	req.Empty(out)
}
