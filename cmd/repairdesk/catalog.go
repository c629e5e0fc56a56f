package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hrygo/repairdesk/server/gateway"
)

var shopsQuery gateway.ShopQuery

var shopsCmd = &cobra.Command{
	Use:   "shops",
	Short: "List partner shops",
	RunE: func(cmd *cobra.Command, _ []string) error {
		shops, err := gateway.NewClientFromProfile(instanceProfile).ListShops(cmd.Context(), shopsQuery)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPREFECTURE\tCATEGORIES\tRATING")
		for _, s := range shops {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\n", s.ID, s.Name, s.Prefecture, strings.Join(s.Categories, ","), s.Rating)
		}
		return tw.Flush()
	},
}

var casesQuery gateway.CaseQuery

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List repair cases",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cases, err := gateway.NewClientFromProfile(instanceProfile).ListCases(cmd.Context(), casesQuery)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDEAL\tSHOP\tCATEGORY\tSTATUS\tUPDATED")
		for _, c := range cases {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.DealID, c.ShopID, c.SymptomCategory, c.Status, c.UpdatedAt)
		}
		return tw.Flush()
	},
}

var caseStatusCmd = &cobra.Command{
	Use:   "status <case-id> <status>",
	Short: "Update the status of a case",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := gateway.NewClientFromProfile(instanceProfile).UpdateCaseStatus(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "case %s: %s\n", c.ID, c.Status)
		return nil
	},
}

func init() {
	shopsCmd.Flags().StringVar(&shopsQuery.Prefecture, "prefecture", "", "filter by prefecture")
	shopsCmd.Flags().StringVar(&shopsQuery.Category, "category", "", "filter by symptom category")

	casesCmd.Flags().StringVar(&casesQuery.ShopID, "shop", "", "filter by shop id")
	casesCmd.Flags().StringVar(&casesQuery.Status, "status", "", "filter by status")
	casesCmd.AddCommand(caseStatusCmd)
}
