package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newThemeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "List, show or select the color theme",
	}
	cmd.AddCommand(newThemeListCmd(opts))
	cmd.AddCommand(newThemeShowCmd(opts))
	cmd.AddCommand(newThemeSetCmd(opts))
	return cmd
}

// themeListResult is the JSON shape of theme list
type themeListResult struct {
	Themes  []string `json:"themes"`
	Current string   `json:"current"`
}

func newThemeListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				themes, err := e.loadThemes(ctx)
				if err != nil {
					return err
				}
				out := newPrinter(cmd, opts)
				if out.json {
					return out.encode(themeListResult{Themes: themes.Themes(), Current: themes.Current()})
				}
				registry := themes.Registry()
				for _, name := range themes.Themes() {
					marker := "  "
					if name == themes.Current() {
						marker = "* "
					}
					fmt.Fprintf(out.w, "%s%s %s\n", marker, swatch(registry.Palette(name).Primary), name)
				}
				return nil
			})
		},
	}
}

func newThemeShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current theme and its palette",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				themes, err := e.loadThemes(ctx)
				if err != nil {
					return err
				}
				state := themes.State()
				out := newPrinter(cmd, opts)
				if out.json {
					return out.encode(state)
				}

				p := state.Palette
				fmt.Fprintln(out.w, headerStyle.Render(state.Name))
				colors := []struct{ name, hex string }{
					{"primary", p.Primary},
					{"secondary", p.Secondary},
					{"background", p.Background},
					{"text", p.Text},
					{"secondaryText", p.SecondaryText},
					{"cardBackground", p.CardBackground},
					{"card", p.Card},
					{"buttonBackground", p.ButtonBackground},
					{"buttonText", p.ButtonText},
					{"headerBackground", p.HeaderBackground},
					{"headerText", p.HeaderText},
					{"borderColor", p.BorderColor},
					{"calendarBackground", p.CalendarBackground},
					{"statusBarColor", p.StatusBarColor},
					{"accent", p.Accent},
					{"warning", p.Warning},
					{"success", p.Success},
				}
				for _, c := range colors {
					if c.hex == "" {
						continue
					}
					fmt.Fprintf(out.w, "  %s %-19s %s\n", swatch(c.hex), c.name, c.hex)
				}
				return nil
			})
		},
	}
}

func newThemeSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Select a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withEnv(cmd.Context(), func(ctx context.Context, e *env) error {
				themes, err := e.loadThemes(ctx)
				if err != nil {
					return err
				}
				if err := themes.SetTheme(ctx, args[0]); err != nil {
					return err
				}
				return newPrinter(cmd, opts).message(themes.State(), "Theme set to %s", args[0])
			})
		},
	}
}
