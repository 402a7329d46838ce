package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/KaramelBytes/defstat/internal/utils"
	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	cmpOutputPath string
	cmpHover      []string
	cmpLayout     string
)

var compareCmd = &cobra.Command{
	Use:   "compare [year]",
	Short: "Print defendant ethnicity shares next to the county population",
	Long: `Load defendants_<year>.xlsx (the current year when omitted), classify each
row and print a comparison table. Use --hover to print the summary line that
highlighting a category would show.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(cmd.Context(), args)
		if err != nil {
			return err
		}
		md := sess.Result.Markdown(sess.Source.Name)

		if cmpOutputPath != "" {
			if err := utils.SafeWriteFile(cmpOutputPath, []byte(md)); err != nil {
				return eris.Wrap(err, "write output")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote comparison to %s\n", cmpOutputPath)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), md)
		}
		if sess.Source.Year != sess.Requested {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ No file for %d; showing %d\n", sess.Requested, sess.Source.Year)
		}

		if len(cmpHover) == 0 {
			return nil
		}
		layout, err := layoutFor(cmpLayout)
		if err != nil {
			return err
		}
		surfaces, err := chart.ForLayout(layout, chartOptions(""))
		if err != nil {
			return err
		}
		text := &terminalText{w: cmd.OutOrStdout()}
		c, err := compare.Bind(sess.Inputs(), chart.AsSurfaces(surfaces), text)
		if err != nil {
			return err
		}
		for _, h := range cmpHover {
			idx, err := parseCategory(h)
			if err != nil {
				return err
			}
			if err := c.Hover(idx); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVarP(&cmpOutputPath, "output", "o", "", "write the markdown comparison to a file instead of stdout")
	compareCmd.Flags().StringSliceVar(&cmpHover, "hover", nil, "category (index, label or keyword) to highlight; repeatable")
	compareCmd.Flags().StringVar(&cmpLayout, "layout", "", "chart layout: combined or split (default from config)")
	rootCmd.AddCommand(compareCmd)
}

// terminalText prints hover summaries in the category colour.
type terminalText struct {
	w io.Writer
}

func (t *terminalText) Show(text, hex string) {
	r, g, b, ok := rgb(hex)
	if !ok {
		fmt.Fprintln(t.w, text)
		return
	}
	color.RGB(r, g, b).Add(color.Bold).Fprintln(t.w, text)
}

func (t *terminalText) Clear() {}

func rgb(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
