package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"showbot/repositories"
)

// translateTargets picks the two languages a translation answers in: explicit
// command arguments first, then the conversation language, then English and
// Italian as fallbacks.
func translateTargets(lookup repositories.Lookup, msg *Message) []int {
	var ids []int
	for _, arg := range msg.Args[1:] {
		if id, ok := lookup.LanguageID(arg); ok {
			ids = append(ids, id)
			continue
		}
		// Not a known language name; maybe an ISO code or a word in that
		// language.
		if lang, err := lookup.LanguageByISO(arg); err == nil {
			ids = append(ids, lang.ID)
			continue
		}
		detected := whatlanggo.Detect(arg)
		if lang, err := lookup.LanguageByISO(detected.Lang.Iso6391()); err == nil {
			ids = append(ids, lang.ID)
		}
	}
	ids = append(ids, msg.LanguageID(), 9, 8)
	return lo.Uniq(ids)[:2]
}

func translateCommand(lookup repositories.Lookup) *Command {
	return &Command{
		Name:    "translate",
		Aliases: []string{"translation", "trad"},
		Help:    "Translates abilities, items, moves and natures across dataset languages.",
		Fn: func(ctx context.Context, msg *Message) error {
			if len(msg.Args) == 0 || len(msg.Args) > 3 {
				return msg.Reply(ctx, "What should I translate?")
			}

			word := msg.Args[0]
			results, err := lookup.Translations(word, translateTargets(lookup, msg))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return msg.Reply(ctx, "Not found")
			}
			if len(results) == 1 {
				return msg.Reply(ctx, results[0].Text)
			}

			parts := lo.Map(results, func(n repositories.Name, _ int) string {
				return fmt.Sprintf("%s (%s)", n.Text, n.Category)
			})
			return msg.Reply(ctx, strings.Join(parts, ", "))
		},
	}
}
