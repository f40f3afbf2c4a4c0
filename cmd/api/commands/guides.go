package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/guidebook/core/internal/application/editor"
	"github.com/guidebook/core/internal/client"
	"github.com/guidebook/core/internal/ports"
)

// NewGuidesCommand creates the guide editing commands. They talk to a
// running server, make their change in an edit session and save the whole
// document back.
func NewGuidesCommand() *cobra.Command {
	v := viper.New()

	guidesCmd := &cobra.Command{
		Use:   "guides",
		Short: "List, show and edit guides through the API",
	}
	guidesCmd.PersistentFlags().String("api", "http://localhost:4001", "Base URL of the Guidebook API")
	guidesCmd.PersistentFlags().String("token", "", "Editor token for mutating routes")
	v.BindPFlag("api", guidesCmd.PersistentFlags().Lookup("api"))
	v.BindPFlag("token", guidesCmd.PersistentFlags().Lookup("token"))
	v.BindEnv("api", "GUIDEBOOK_API")
	v.BindEnv("token", "EDITOR_TOKEN")

	newClient := func() *client.Client {
		return client.New(v.GetString("api"), client.WithToken(v.GetString("token")))
	}

	guidesCmd.AddCommand(
		newListGuidesCommand(newClient),
		newShowGuideCommand(newClient),
		newCreateGuideCommand(newClient),
		newAddSectionCommand(newClient),
		newRenameSectionCommand(newClient),
		newMoveSectionCommand(newClient),
		newAddItemCommand(newClient),
		newUploadCommand(newClient),
	)
	return guidesCmd
}

func newListGuidesCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List guides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			guides, err := newClient().ListGuides(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tHERO")
			for _, g := range guides {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", g.ID, g.Title, g.Hero)
			}
			return tw.Flush()
		},
	}
}

func newShowGuideCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <guide>",
		Short: "Print the outline of a guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guide, err := newClient().GetGuide(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			session := editor.NewSession(guide, nil)
			if expand, _ := cmd.Flags().GetBool("expand"); expand {
				for _, sec := range session.Guide().Sections {
					if !sec.Open {
						session.ToggleSection(sec.ID)
					}
				}
			}
			return session.Outline(cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("expand", false, "Expand collapsed sections")
	return cmd
}

func newCreateGuideCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a guide",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			title, _ := cmd.Flags().GetString("title")
			hero, _ := cmd.Flags().GetString("hero")

			guide, err := newClient().CreateGuide(cmd.Context(), ports.CreateGuideRequest{
				ID:    id,
				Title: title,
				Hero:  hero,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), guide.ID)
			return nil
		},
	}
	cmd.Flags().String("id", "", "Guide ID (generated when empty)")
	cmd.Flags().String("title", "", "Guide title")
	cmd.Flags().String("hero", "", "Hero blurb")
	return cmd
}

func newAddSectionCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "add-section <guide> <title>",
		Short: "Append a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editGuide(cmd.Context(), newClient(), args[0], cmd.OutOrStdout(), func(s *editor.Session) error {
				_, err := s.AddSection(args[1])
				return err
			})
		},
	}
}

func newRenameSectionCommand(newClient func() *client.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-section <guide> <section> <title>",
		Short: "Rename a section",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editGuide(cmd.Context(), newClient(), args[0], cmd.OutOrStdout(), func(s *editor.Session) error {
				return s.RenameSection(args[1], args[2])
			})
		},
	}
}

func newMoveSectionCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move-section <guide> <section>",
		Short: "Move a section before another one (or last)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _ := cmd.Flags().GetString("before")
			guide, err := newClient().MoveSection(cmd.Context(), args[0], args[1], before)
			if err != nil {
				return err
			}
			return editor.WriteOutline(cmd.OutOrStdout(), guide)
		},
	}
	cmd.Flags().String("before", "", "Section the moved section is placed before (empty = last)")
	return cmd
}

func newAddItemCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-item <guide> <section>",
		Short: "Append a text item to a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			content, _ := cmd.Flags().GetString("content")

			return editGuide(cmd.Context(), newClient(), args[0], cmd.OutOrStdout(), func(s *editor.Session) error {
				id, err := s.AddItem(args[1], title)
				if err != nil {
					return err
				}
				return s.SetItemContent(args[1], id, content)
			})
		},
	}
	cmd.Flags().String("title", editor.DefaultItemTitle, "Item title")
	cmd.Flags().String("content", "", "Item HTML content")
	return cmd
}

func newUploadCommand(newClient func() *client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <guide> <file>",
		Short: "Upload an image into a guide section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, _ := cmd.Flags().GetString("section")

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			resp, err := newClient().UploadToGuide(cmd.Context(), args[0], section, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", resp.URL, resp.SectionID)
			return nil
		},
	}
	cmd.Flags().String("section", "", "Target section ID (first section when empty or unknown)")
	return cmd
}

// editGuide loads a guide, applies fn inside an edit session, saves and
// prints the resulting outline
func editGuide(ctx context.Context, c *client.Client, id string, out io.Writer, fn func(*editor.Session) error) error {
	guide, err := c.GetGuide(ctx, id)
	if err != nil {
		return err
	}

	session := editor.NewSession(guide, c)
	if err := session.Edit(); err != nil {
		return err
	}
	if err := fn(session); err != nil {
		session.Discard()
		return err
	}
	if err := session.Save(ctx); err != nil {
		return err
	}
	return session.Outline(out)
}
