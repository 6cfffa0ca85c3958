package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/novaflow/sciskills/pkg/presenter"
	"github.com/novaflow/sciskills/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect the skill catalog",
	Long:  `List and show the skill documents the server would expose as MCP tools.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all skills in the catalog",
	Long:  `List all skills with their names, descriptions, and directories.`,
	Run: func(cmd *cobra.Command, _ []string) {
		listSkillsCmd(cmd)
	},
}

var skillShowCmd = &cobra.Command{
	Use:   "show <skill-name>",
	Short: "Print a skill document",
	Long: `Print the full SKILL.md content of a skill, exactly as the MCP
tools/call method would return it. The name may be either the canonical
frontmatter name or the skill's directory name.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		showSkillCmd(cmd, args[0])
	},
}

func init() {
	skillCmd.PersistentFlags().String("skills-dir", "./scientific-skills", "Directory containing skill subdirectories")

	skillCmd.AddCommand(skillListCmd)
	skillCmd.AddCommand(skillShowCmd)
}

func skillRegistryFromFlags(cmd *cobra.Command) *skills.Registry {
	skillsDir, err := cmd.Flags().GetString("skills-dir")
	if err != nil || skillsDir == "" {
		skillsDir = viper.GetString("skills.dir")
	}
	return skills.NewRegistry(skillsDir)
}

func listSkillsCmd(cmd *cobra.Command) {
	ctx := cmd.Context()
	registry := skillRegistryFromFlags(cmd)

	catalog := registry.ListSkills(ctx)
	if len(catalog) == 0 {
		presenter.Info("No skills found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tDIRECTORY")
	for _, skill := range catalog {
		fmt.Fprintf(w, "%s\t%s\t%s\n", skill.Name, skill.Description, skill.Directory)
	}
	w.Flush()
}

func showSkillCmd(cmd *cobra.Command, name string) {
	ctx := cmd.Context()
	registry := skillRegistryFromFlags(cmd)

	content, ok := registry.GetContent(ctx, name)
	if !ok {
		presenter.Error(errors.Errorf("skill '%s' not found", name), "Unknown skill")
		os.Exit(1)
	}

	fmt.Print(content)
}
