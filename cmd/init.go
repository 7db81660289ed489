package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/scaffolding"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a new site from a starter template",
	Long: `Create the source tree of a new site: config.md, layouts, includes, data,
posts, pages and assets. Existing files are never overwritten unless --force
is given.

Examples:
  quire init                      # Blog starter in the current directory
  quire init my-blog --title "Field Notes" --author Ada
  quire init docs --template minimal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("template", "t", scaffolding.DefaultTemplate, "Starter template (blog, minimal)")
	initCmd.Flags().String("title", "", "Site title (defaults to the directory name)")
	initCmd.Flags().String("description", "", "Site description")
	initCmd.Flags().String("url", "", "Absolute site URL used in the RSS feed")
	initCmd.Flags().String("author", "", "Author name")
	initCmd.Flags().Bool("force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	flags := cmd.Flags()
	opts := scaffolding.GenerateOptions{Dir: dir}
	opts.Template, _ = flags.GetString("template")
	opts.SiteTitle, _ = flags.GetString("title")
	opts.Description, _ = flags.GetString("description")
	opts.URL, _ = flags.GetString("url")
	opts.Author, _ = flags.GetString("author")
	opts.Force, _ = flags.GetBool("force")

	written, err := scaffolding.NewSiteGenerator().Generate(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, p := range written {
		fmt.Fprintln(out, "  "+mutedStyle.Render(p))
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("created %d file(s) in %s", len(written), dir)))
	fmt.Fprintln(out, "next: "+titleStyle.Render("quire serve --source "+dir))
	return nil
}
