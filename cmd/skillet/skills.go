package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillet/pkg/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Inspect and manage skill packages",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		for _, md := range orch.Catalog() {
			fmt.Printf("%-24s %s\n", md.ID, md.Description)
		}
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a skill's metadata, tools, and references",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		pkg, err := orch.Registry().LoadSkill(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:          %s\n", pkg.Metadata.ID)
		fmt.Printf("Name:        %s\n", pkg.Metadata.Name)
		fmt.Printf("Description: %s\n", pkg.Metadata.Description)
		if len(pkg.Metadata.Tags) > 0 {
			fmt.Printf("Tags:        %s\n", strings.Join(pkg.Metadata.Tags, ", "))
		}
		if len(pkg.Metadata.MatchTerms) > 0 {
			fmt.Printf("Match terms: %s\n", strings.Join(pkg.Metadata.MatchTerms, ", "))
		}
		if len(pkg.Tools) > 0 {
			fmt.Println("Tools:")
			for _, t := range pkg.Tools {
				fmt.Printf("  - %s\n", t.Name())
			}
		}
		if len(pkg.References) > 0 {
			fmt.Println("References:")
			for _, ref := range pkg.References {
				fmt.Printf("  - %s\n", ref)
			}
		}
		return nil
	},
}

var skillsRouteCmd = &cobra.Command{
	Use:   "route <message>",
	Short: "Rank skills against a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator()
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		minScore, _ := cmd.Flags().GetFloat64("min-score")

		matched := orch.RouteSkills(strings.Join(args, " "), skills.RouteOptions{
			Limit:    limit,
			Tags:     tags,
			MinScore: minScore,
		})
		if len(matched) == 0 {
			fmt.Println("no skills matched")
			return nil
		}
		for _, md := range matched {
			fmt.Printf("%-24s %s\n", md.ID, md.Description)
		}
		return nil
	},
}

var skillsCreateCmd = &cobra.Command{
	Use:   "create <id>",
	Short: "Scaffold a new skill package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tags")
		matchTerms, _ := cmd.Flags().GetStringSlice("match-terms")
		force, _ := cmd.Flags().GetBool("force")

		dir, err := skills.CreatePackage(viper.GetString("skills_dir"), skills.ScaffoldConfig{
			ID:          args[0],
			Name:        name,
			Description: description,
			Tags:        tags,
			MatchTerms:  matchTerms,
			Force:       force,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created skill package at %s\n", dir)
		return nil
	},
}

func init() {
	skillsRouteCmd.Flags().Int("limit", 0, "maximum number of results (0 for no limit)")
	skillsRouteCmd.Flags().StringSlice("tags", nil, "restrict routing to skills carrying any of these tags")
	skillsRouteCmd.Flags().Float64("min-score", 0, "exclude skills scoring at or below this value")

	skillsCreateCmd.Flags().String("name", "", "display name (defaults to the id)")
	skillsCreateCmd.Flags().String("description", "", "one-line description")
	skillsCreateCmd.Flags().StringSlice("tags", nil, "tags")
	skillsCreateCmd.Flags().StringSlice("match-terms", nil, "routing match terms")
	skillsCreateCmd.Flags().Bool("force", false, "overwrite an existing package")

	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsRouteCmd)
	skillsCmd.AddCommand(skillsCreateCmd)
}
