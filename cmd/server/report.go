package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/workpackage-engine/api"
	"github.com/warp/workpackage-engine/factory"
	"go.uber.org/zap"
)

var periodID string

var evolutionCmd = &cobra.Command{
	Use:   "evolution <contract-id>",
	Short: "Print the evolution of a contract as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		evo, err := a.engine.Evolution(cmd.Context(), args[0], periodID)
		if err != nil {
			return err
		}
		if evo == nil {
			return fmt.Errorf("contract %s not found", args[0])
		}
		return printJSON(api.ToEvolutionDTO(evo))
	},
}

var ticketsCmd = &cobra.Command{
	Use:   "tickets <contract-id>",
	Short: "Print the ticket consumption report of a contract as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.engine.TicketConsumption(cmd.Context(), args[0], periodID)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("contract %s not found", args[0])
		}
		return printJSON(api.ToTicketReportDTO(report))
	},
}

var loadScenarioCmd = &cobra.Command{
	Use:   "load-scenario <scenario-id>",
	Short: "Replace the database content with a demo scenario",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := api.LoadScenario(cmd.Context(), a.store, factory.NewContractFactory(), args[0]); err != nil {
			return err
		}
		a.log.Info("scenario loaded", zap.String("scenario", args[0]), zap.String("database", a.cfg.Database.Path))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{evolutionCmd, ticketsCmd} {
		cmd.Flags().StringVar(&periodID, "period", "", "validity period id (default: period containing today)")
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
