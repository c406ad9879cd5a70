package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openagv/fleetkernel/config"
)

var plantCmd = &cobra.Command{
	Use:   "plant",
	Short: "Plant model commands",
}

var plantValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a plant model file for consistency",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlantValidate,
}

var plantLsCmd = &cobra.Command{
	Use:   "ls [file]",
	Short: "List the contents of a plant model file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlantLs,
}

func init() {
	plantCmd.AddCommand(plantValidateCmd)
	plantCmd.AddCommand(plantLsCmd)
	rootCmd.AddCommand(plantCmd)
}

func runPlantValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.LoadPlant(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

func runPlantLs(cmd *cobra.Command, args []string) error {
	m, err := config.LoadPlant(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range m.Points {
		fmt.Fprintf(out, "point %s type=%s\n", p.Name, p.Type)
	}
	for _, p := range m.Paths {
		fmt.Fprintf(out, "path %s %s -> %s length=%d\n", p.Name, p.Source, p.Dest, p.Length)
	}
	for _, l := range m.Locations {
		fmt.Fprintf(out, "location %s point=%s ops=%v\n", l.Name, l.LinkedPoint, l.Operations)
	}
	for _, v := range m.Vehicles {
		fmt.Fprintf(out, "vehicle %s at=%s energy=%d\n", v.Name, v.Position, v.EnergyLevel)
	}
	return nil
}
