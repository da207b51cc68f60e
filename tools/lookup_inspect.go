// Command lookup_inspect maintains and inspects the lookup dataset: seed the
// language table, import localized names from a CSV file and dump the stored
// rows as a table.
//
// Usage:
//
//	go run ./tools -db /var/lib/showbot/lookup seed
//	go run ./tools -db /var/lib/showbot/lookup import -file names.csv
//	go run ./tools -db /var/lib/showbot/lookup languages
//	go run ./tools -db /var/lib/showbot/lookup names -word tackle
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"showbot/repositories"
)

func main() {
	dbPath := flag.String("db", "lookup", "Path to the badger lookup database")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("expected a subcommand: seed, import, languages or names")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	lookup := repositories.NewLookup(db, slog.Default())

	switch flag.Arg(0) {
	case "seed":
		if err := lookup.SeedDefaults(); err != nil {
			log.Fatal(err)
		}
		fmt.Println(color.New(color.FgGreen).Render("language table seeded"))
	case "import":
		runImport(lookup, flag.Args()[1:])
	case "languages":
		printLanguages(lookup)
	case "names":
		printNames(lookup, flag.Args()[1:])
	default:
		log.Fatalf("unknown subcommand %q", flag.Arg(0))
	}
}

// runImport loads rows of "category,language_id,entity_id,text" from a CSV
// file.
func runImport(lookup repositories.Lookup, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to import")
	_ = fs.Parse(args)
	if *file == "" {
		log.Fatal("import requires -file")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatal(err)
	}

	imported := 0
	for i, row := range rows {
		if len(row) != 4 {
			log.Fatalf("row %d: expected 4 columns, got %d", i+1, len(row))
		}
		langID, err := strconv.Atoi(row[1])
		if err != nil {
			log.Fatalf("row %d: bad language id: %v", i+1, err)
		}
		entityID, err := strconv.Atoi(row[2])
		if err != nil {
			log.Fatalf("row %d: bad entity id: %v", i+1, err)
		}
		err = lookup.PutName(repositories.Name{
			Category:   row[0],
			LanguageID: langID,
			EntityID:   entityID,
			Text:       row[3],
		})
		if err != nil {
			log.Fatal(err)
		}
		imported++
	}
	fmt.Println(color.New(color.FgGreen).Render(fmt.Sprintf("%d names imported", imported)))
}

func printLanguages(lookup repositories.Lookup) {
	langs, err := lookup.Languages()
	if err != nil {
		log.Fatal(err)
	}

	table := newTable([]string{"ID", "ISO", "Name"})
	for _, lang := range langs {
		table.Append([]string{strconv.Itoa(lang.ID), lang.Identifier, lang.Name})
	}
	table.Render()
}

func printNames(lookup repositories.Lookup, args []string) {
	fs := flag.NewFlagSet("names", flag.ExitOnError)
	word := fs.String("word", "", "Word to look up")
	_ = fs.Parse(args)
	if *word == "" {
		log.Fatal("names requires -word")
	}

	names, err := lookup.NamesFor(*word)
	if err != nil {
		log.Fatal(err)
	}
	if len(names) == 0 {
		fmt.Println(color.New(color.FgYellow).Render("no entries"))
		return
	}

	table := newTable([]string{"Category", "Language", "Entity", "Text"})
	for _, n := range names {
		table.Append([]string{
			n.Category, strconv.Itoa(n.LanguageID), strconv.Itoa(n.EntityID), n.Text,
		})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
