package main

import (
	"context"
	"fmt"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/ingest"
	"github.com/urfave/cli/v2"
)

type seedSource struct {
	url     string
	title   string
	content string
}

var seedPoliticians = []core.Politician{
	{Name: "Mette Holm", Party: "Socialdemokratiet", Active: true},
	{Name: "Jakob Friis", Party: "Venstre", Active: true},
	{Name: "Karen Østergaard", Party: "SF", Active: true},
}

var seedTopics = []core.Topic{
	{Name: "CO2-afgift på landbrug", Slug: "co2-afgift-landbrug", Description: "Afgift på landbrugets drivhusgasudledninger"},
	{Name: "Atomkraft", Slug: "atomkraft", Description: "Ophævelse af forbuddet mod atomkraft i Danmark"},
	{Name: "Topskat", Slug: "topskat", Description: "Ændringer af topskattesatsen"},
}

var seedSources = []seedSource{
	{
		url:   "https://example-nyheder.dk/politik/co2-afgift-interview",
		title: "Interview om CO2-afgift",
		content: "Under et interview på Christiansborg gentog partiets ordfører, at en CO2-afgift " +
			"på landbruget er en nødvendig del af den grønne omstilling. Afgiften skal efter planen " +
			"indfases gradvist frem mod 2030, så landmændene får tid til at omstille produktionen. " +
			"Ordføreren afviste samtidig kritikken af, at afgiften vil flytte produktion til udlandet, " +
			"og henviste til ekspertgruppens beregninger af lækageeffekten. Oppositionen kaldte " +
			"udspillet for et angreb på dansk fødevareproduktion og varslede et alternativt forslag " +
			"uden en generel afgift.",
	},
	{
		url:   "https://example-nyheder.dk/politik/atomkraft-debat",
		title: "Debat om atomkraft",
		content: "I folketingssalen blev forbuddet mod atomkraft igen sat til debat. Flere ordførere " +
			"argumenterede for, at nye reaktortyper bør undersøges som supplement til vind og sol, " +
			"mens regeringens ordfører fastholdt, at atomkraft hverken er billigere eller hurtigere " +
			"at bygge end vedvarende energi. Et forslag om at ophæve forbuddet fra 1985 blev sendt " +
			"til videre behandling i udvalget. Analysen fra energistyrelsen ventes færdig til efteråret " +
			"og skal indgå i forhandlingerne om den næste energiaftale.",
	},
	{
		url:   "https://example-avisen.dk/oekonomi/topskat-udspil",
		title: "Udspil om topskat",
		content: "Regeringens skatteudspil lægger op til en lavere topskattesats for indkomster under " +
			"en ny mellemgrænse, finansieret af et loft over rentefradraget. Finansministeren kaldte " +
			"udspillet en målrettet lettelse til folk i arbejde, mens kritikere fra venstrefløjen " +
			"påpegede, at gevinsten overvejende tilfalder de højeste indkomster. Arbejdsgiverforeningen " +
			"roste udspillet for at øge arbejdsudbuddet, og forhandlingerne ventes afsluttet inden " +
			"finanslovens fremsættelse.",
	},
}

// seedCommand loads a small demo corpus so retrieval has something to rank.
// Requires running embedding and vector index services.
func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	for i := range seedPoliticians {
		p := seedPoliticians[i]
		added, err := tracker.ReferenceRepository().AddPolitician(ctx, &p)
		if err != nil {
			return fmt.Errorf("failed to seed politician %s: %w", p.Name, err)
		}
		fmt.Printf("politician %s (%s)\n", added.Name, added.Id)
	}

	for i := range seedTopics {
		t := seedTopics[i]
		added, err := tracker.ReferenceRepository().AddTopic(ctx, &t)
		if err != nil {
			return fmt.Errorf("failed to seed topic %s: %w", t.Slug, err)
		}
		fmt.Printf("topic %s (%s)\n", added.Slug, added.Id)
	}

	for _, s := range seedSources {
		result, err := tracker.Ingest(ctx, ingest.Input{
			URL:     s.url,
			Title:   s.title,
			Content: s.content,
		})
		if err != nil {
			return fmt.Errorf("failed to seed source %s: %w", s.url, err)
		}
		fmt.Printf("source %s: %d chunks\n", s.url, result.ChunkCount)
	}

	return nil
}
