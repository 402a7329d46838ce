package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/KaramelBytes/defstat/internal/utils"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	renderOutDir string
	renderLayout string
	renderFormat string
	renderHover  string
)

var renderCmd = &cobra.Command{
	Use:   "render [year]",
	Short: "Write the comparison charts and summary to a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := loadSession(cmd.Context(), args)
		if err != nil {
			return err
		}
		layout, err := layoutFor(renderLayout)
		if err != nil {
			return err
		}
		opt := chartOptions(renderFormat)
		surfaces, err := chart.ForLayout(layout, opt)
		if err != nil {
			return err
		}
		text := &chart.TextBox{}
		c, err := compare.Bind(sess.Inputs(), chart.AsSurfaces(surfaces), text)
		if err != nil {
			return err
		}
		if renderHover != "" {
			idx, err := parseCategory(renderHover)
			if err != nil {
				return err
			}
			if err := c.Hover(idx); err != nil {
				return err
			}
		}

		md := sess.Result.Markdown(sess.Source.Name)
		if line, _ := text.Text(); line != "" {
			md += "\n" + line + "\n"
		}

		var g errgroup.Group
		for _, s := range surfaces {
			path := filepath.Join(renderOutDir, s.Name()+"."+string(opt.Format))
			img := s.Image()
			g.Go(func() error {
				if err := utils.SafeWriteFile(path, img); err != nil {
					return eris.Wrapf(err, "write %s", path)
				}
				zap.L().Debug("chart written", zap.String("path", path), zap.Int("bytes", len(img)))
				return nil
			})
		}
		summaryPath := filepath.Join(renderOutDir, "summary.md")
		g.Go(func() error {
			return eris.Wrap(utils.SafeWriteFile(summaryPath, []byte(md)), "write summary")
		})
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Rendered %s layout for %s to %s\n", c.Layout(), sess.Source.Name, renderOutDir)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", "charts", "output directory")
	renderCmd.Flags().StringVar(&renderLayout, "layout", "", "chart layout: combined or split (default from config)")
	renderCmd.Flags().StringVar(&renderFormat, "format", "", "image format: svg or png (default from config)")
	renderCmd.Flags().StringVar(&renderHover, "hover", "", "category to highlight in the rendered charts")
	rootCmd.AddCommand(renderCmd)
}
