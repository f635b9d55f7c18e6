package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/relief-match/internal/geo"
)

// countryReport describes one country and, optionally, its relation to another.
type countryReport struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Regions   []string `json:"regions"`
	Neighbors []string `json:"neighbors"`

	Other        string `json:"other,omitempty"`
	AreNeighbors *bool  `json:"are_neighbors,omitempty"`
	SharedRegion string `json:"shared_region,omitempty"`
}

var geoCmd = &cobra.Command{
	Use:   "geo <country> [other-country]",
	Short: "Look up regions and neighbors of a country",
	Long:  "Resolves a country by code, name or alias and prints its regions and direct neighbors. With a second country, also reports whether the two border each other or share a region.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := geoReport(geo.Default(), args)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rep)
	},
}

func geoReport(kb *geo.KnowledgeBase, args []string) (*countryReport, error) {
	code := kb.Resolve(args[0])
	if code == "" {
		return nil, eris.Errorf("geo: unknown country %q", args[0])
	}
	rep := &countryReport{
		Code:      code,
		Name:      kb.CountryName(code),
		Regions:   kb.RegionsOf(code),
		Neighbors: kb.Neighbors(code),
	}
	if len(args) == 2 {
		other := kb.Resolve(args[1])
		if other == "" {
			return nil, eris.Errorf("geo: unknown country %q", args[1])
		}
		n := kb.AreNeighbors(code, other)
		rep.Other = other
		rep.AreNeighbors = &n
		rep.SharedRegion, _ = kb.SharedRegion(code, other)
	}
	return rep, nil
}

func init() { rootCmd.AddCommand(geoCmd) }
