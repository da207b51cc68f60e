// Package repositories holds the read-only lookup dataset consumed by leaf
// command handlers. The data lives in BadgerDB under prefix-scanned keys;
// the session core never touches it.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	apperrors "showbot/errors"
	"showbot/protocol"
)

// Language is one row of the language table.
type Language struct {
	ID int `json:"id"`
	// Identifier is the ISO 639-1 code ("en", "it").
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// Name is one localized name of a dataset entity.
type Name struct {
	Category   string `json:"category"`
	LanguageID int    `json:"language_id"`
	// EntityID groups the localizations of one entity across languages.
	EntityID int    `json:"entity_id"`
	Text     string `json:"text"`
}

// DefaultLanguages seeds a fresh dataset so language resolution works before
// any full import ran. IDs follow the upstream dataset convention.
var DefaultLanguages = []Language{
	{ID: 1, Identifier: "ja", Name: "Japanese"},
	{ID: 3, Identifier: "ko", Name: "Korean"},
	{ID: 4, Identifier: "zh", Name: "Chinese"},
	{ID: 5, Identifier: "fr", Name: "French"},
	{ID: 6, Identifier: "de", Name: "German"},
	{ID: 7, Identifier: "es", Name: "Spanish"},
	{ID: 8, Identifier: "it", Name: "Italiano"},
	{ID: 9, Identifier: "en", Name: "English"},
}

// Lookup reads and writes the dataset.
//
// Key layout:
//
//	lang:<normalized name>            -> Language
//	iso:<identifier>                  -> Language
//	name:<normalized text>:<category>:<language id> -> Name
//
// The normalized projection in the key is the same one used for user IDs, so
// a chat argument can be matched without further cleanup.
type Lookup struct {
	db  *badger.DB
	log *slog.Logger
}

func NewLookup(db *badger.DB, log *slog.Logger) Lookup {
	return Lookup{db: db, log: log}
}

// SeedDefaults installs the built-in language table when the dataset has no
// languages yet.
func (l Lookup) SeedDefaults() error {
	langs, err := l.Languages()
	if err != nil {
		return err
	}
	if len(langs) > 0 {
		return nil
	}
	l.log.Info("seeding default language table", "languages", len(DefaultLanguages))
	for _, lang := range DefaultLanguages {
		if err := l.PutLanguage(lang); err != nil {
			return err
		}
	}
	return nil
}

// PutLanguage stores a language row under both its name and its ISO code.
func (l Lookup) PutLanguage(lang Language) error {
	value, err := json.Marshal(lang)
	if err != nil {
		return err
	}
	return l.db.Update(func(txn *badger.Txn) error {
		nameKey := fmt.Sprintf("lang:%s", protocol.ToUserID(lang.Name))
		if err := txn.Set([]byte(nameKey), value); err != nil {
			return err
		}
		isoKey := fmt.Sprintf("iso:%s", lang.Identifier)
		return txn.Set([]byte(isoKey), value)
	})
}

// LanguageID resolves a language display name to its dataset ID.
func (l Lookup) LanguageID(name string) (int, bool) {
	lang, err := l.languageByKey(fmt.Sprintf("lang:%s", protocol.ToUserID(name)))
	if err != nil {
		return 0, false
	}
	return lang.ID, true
}

// LanguageByISO resolves an ISO 639-1 code to its language row.
func (l Lookup) LanguageByISO(code string) (Language, error) {
	return l.languageByKey(fmt.Sprintf("iso:%s", strings.ToLower(code)))
}

func (l Lookup) languageByKey(key string) (Language, error) {
	var lang Language
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &lang)
		})
	})
	if err == badger.ErrKeyNotFound {
		return Language{}, fmt.Errorf("%w: %s", apperrors.ErrLookupMiss, key)
	}
	return lang, err
}

// Languages returns the full language table, for tooling.
func (l Lookup) Languages() ([]Language, error) {
	var out []Language
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("lang:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var lang Language
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &lang)
			})
			if err != nil {
				return err
			}
			out = append(out, lang)
		}
		return nil
	})
	return out, err
}

// PutName stores one localized entity name.
func (l Lookup) PutName(n Name) error {
	value, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("name:%s:%s:%d", protocol.ToUserID(n.Text), n.Category, n.LanguageID)
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// NamesFor returns every stored localization matching the normalized word,
// across all categories and languages.
func (l Lookup) NamesFor(word string) ([]Name, error) {
	var out []Name
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(fmt.Sprintf("name:%s:", protocol.ToUserID(word)))
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n Name
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &n)
			})
			if err != nil {
				return err
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

// Translations resolves a word into its names in the target languages: the
// word is matched in any language, then each matching entity contributes its
// localizations in the requested languages, source language excluded.
func (l Lookup) Translations(word string, languages []int) ([]Name, error) {
	matches, err := l.NamesFor(word)
	if err != nil {
		return nil, err
	}

	var out []Name
	for _, match := range matches {
		siblings, err := l.entityNames(match.Category, match.EntityID)
		if err != nil {
			return nil, err
		}
		for _, sibling := range siblings {
			if sibling.LanguageID == match.LanguageID {
				continue
			}
			if lo.Contains(languages, sibling.LanguageID) {
				out = append(out, sibling)
			}
		}
	}
	return lo.UniqBy(out, func(n Name) string {
		return fmt.Sprintf("%s:%d:%d", n.Category, n.EntityID, n.LanguageID)
	}), nil
}

// entityNames scans every localization of one entity. The dataset is small
// enough (tens of thousands of keys) that a full name-prefix scan per
// translate command stays well under interactive latency.
func (l Lookup) entityNames(category string, entityID int) ([]Name, error) {
	var out []Name
	err := l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("name:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var n Name
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &n)
			})
			if err != nil {
				return err
			}
			if n.Category == category && n.EntityID == entityID {
				out = append(out, n)
			}
		}
		return nil
	})
	return out, err
}
