package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/radieske/live-odds-platform/internal/market-service/dto"
	"github.com/radieske/live-odds-platform/internal/shared/config"
	"github.com/radieske/live-odds-platform/pkg/contracts/events"
)

// oddstool: utilitário de linha de comando para inspecionar o estado do feed
//
//	oddstool events                 lista eventos com mercados correntes
//	oddstool markets <eventId>      lista mercados de um evento
//	oddstool odds <marketId>        mostra o snapshot corrente de um mercado
func main() {
	base := flag.String("base", "", "URL base do market-service (default MARKET_URL)")
	flag.Parse()

	cfg := config.Load()
	if *base == "" {
		*base = cfg.MarketURL
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	cli := &http.Client{Timeout: 5 * time.Second}

	var err error
	switch args[0] {
	case "events":
		err = showEvents(cli, *base)
	case "markets":
		if len(args) < 2 {
			usage()
		}
		err = showMarkets(cli, *base, args[1])
	case "odds":
		if len(args) < 2 {
			usage()
		}
		err = showOdds(cli, *base, args[1])
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "uso: oddstool [-base URL] events | markets <eventId> | odds <marketId>")
	os.Exit(2)
}

// fetchJSON faz GET e decodifica a resposta JSON em out
func fetchJSON(cli *http.Client, url string, out any) error {
	resp, err := cli.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func showEvents(cli *http.Client, base string) error {
	var evs []dto.Event
	if err := fetchJSON(cli, base+"/v1/events", &evs); err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Event", "Sport", "Markets")
	for _, e := range evs {
		table.Append(e.EventID, e.EventTypeID, fmt.Sprintf("%d", e.Markets))
	}
	table.Render()
	return nil
}

func showMarkets(cli *http.Client, base, eventID string) error {
	var mks []dto.MarketSummary
	if err := fetchJSON(cli, base+"/v1/events/"+eventID+"/markets", &mks); err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Market", "Name", "Status", "InPlay", "Version")
	for _, m := range mks {
		table.Append(m.MarketID, m.Name, m.Status, fmt.Sprintf("%v", m.InPlay), fmt.Sprintf("%d", m.Version))
	}
	table.Render()
	return nil
}

func showOdds(cli *http.Client, base, marketID string) error {
	var snap events.MarketSnapshot
	if err := fetchJSON(cli, base+"/v1/markets/"+marketID+"/odds", &snap); err != nil {
		return err
	}

	fmt.Printf("%s  %s  status=%s inPlay=%v v=%d\n", snap.MarketID, snap.Name, snap.Status, snap.InPlay, snap.Version)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Selection", "Runner", "Status", "Back", "Lay")
	for _, r := range snap.Runners {
		table.Append(r.SelectionID, r.Name, r.Status, fmtPrices(r.Back), fmtPrices(r.Lay))
	}
	table.Render()
	return nil
}

// fmtPrices formata o melhor preço do ladder (posição 0)
func fmtPrices(ps []events.PriceSize) string {
	if len(ps) == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f @ %.0f", ps[0].Price, ps[0].Size)
}
