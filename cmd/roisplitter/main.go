// Package main provides the CLI entry point for roisplitter.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
	"roisplitter/pkg/atlas"
	"roisplitter/pkg/config"
	"roisplitter/pkg/session"
)

var (
	configPath string
	verbose    bool
	cfg        *config.Config

	outputDir      string
	coreName       string
	sliceNumber    int
	outlinePath    string
	roiName        string
	atlasRegion    string
	removeSelector string
	focusLevel     int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "roisplitter",
		Short: "Split microscope regions of interest into full resolution tiles",
		Long: `roisplitter reads a multi-resolution slide scanner acquisition, covers a
region of interest drawn on a low resolution level with square tiles and
writes those tiles at full resolution, together with their positions and an
image for atlas registration.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Shutdown()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "roisplitter.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print progress messages")

	rootCmd.AddCommand(analyzeCmd(), tessellateCmd(), splitCmd(), inspectCmd(), atlasCmd(), configCmd())
	return rootCmd
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.SetVerbose(verbose || cfg.Output.Verbose)
	lc := &logger.LogConfig{
		Logfile: cfg.Output.Logfile,
		MaxSize: cfg.Output.MaxLogSize,
		MaxAge:  cfg.Output.MaxLogAge,
	}
	lc.SetLogger()
	return nil
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [series-dir]",
		Short: "Infer the slice pyramids of an acquisition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Open(session.Params{InputDir: args[0], OutputDir: outputDir, Name: coreName, Config: cfg})
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %6s %8s %10s %8s %10s %8s\n", "slice", "levels", "highres", "binning", "step", "deviation", "spread")
			for i, d := range s.Slices {
				fmt.Printf("%-24s %6d %8d %10.3f %8.3f %9.2f%% %7.2f%%\n",
					s.SliceNames()[i], d.PyramidDepth, d.HighResIndex, d.BinFactor, d.BinStep, d.StepDeviation*100, d.RatioSpread*100)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&coreName, "name", "", "Core name of the acquisition (default: series metadata name)")
	return cmd
}

func addROIFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: output.dir from the configuration)")
	cmd.Flags().StringVar(&coreName, "name", "", "Core name of the acquisition (default: series metadata name)")
	cmd.Flags().IntVarP(&sliceNumber, "slice", "s", 0, "Slice number")
	cmd.Flags().StringVar(&outlinePath, "outline", "", "Regions file holding the hand-drawn ROI outline; its slice is used unless --slice is given")
	cmd.Flags().StringVar(&roiName, "roi", "", "Name of the ROI in the outline file (default: every outline of the file)")
	cmd.Flags().StringVar(&atlasRegion, "atlas-region", "", "Registered atlas region to use as ROI, as Side-Region (e.g. L-CPu)")
	cmd.Flags().StringVar(&removeSelector, "remove", "", "Tiles to remove: N, N1,N2,... or N1-N2")
	cmd.Flags().IntVar(&focusLevel, "focus", 0, "Report the crop of this pyramid level (1 = full resolution)")
}

// prepare opens the acquisition and tessellates the ROI selected by the flags
func prepare(cmd *cobra.Command, input string) (session.Session, error) {
	out := outputDir
	if out == "" {
		out = cfg.Output.Dir
	}
	if out == "" {
		return session.Session{}, fmt.Errorf("no output directory: use --output or output.dir")
	}

	s, err := session.Open(session.Params{InputDir: input, OutputDir: out, Name: coreName, Config: cfg})
	if err != nil {
		return s, err
	}

	var cat *atlas.YAMLCatalog
	slice := sliceNumber
	if outlinePath != "" {
		if cat, err = atlas.LoadCatalog(outlinePath); err != nil {
			return s, err
		}
		// outlines saved by split name their slice
		if !cmd.Flags().Changed("slice") && cat.Slice != "" {
			if slice, err = atlas.SliceNumber(cat.Slice); err != nil {
				return s, err
			}
		}
	}
	if s, err = s.SelectSlice(slice); err != nil {
		return s, err
	}

	switch {
	case atlasRegion != "":
		s, err = s.LoadAtlasRegion(atlasRegion)
	case cat != nil:
		var roi models.Region
		if roi, err = catalogROI(cat, roiName); err == nil {
			s, err = s.SetROI(roi.Name, roi)
		}
	default:
		err = fmt.Errorf("no ROI: use --atlas-region or --outline")
	}
	if err != nil {
		return s, err
	}

	if s, err = s.Tessellate(); err != nil {
		return s, err
	}
	if removeSelector != "" {
		if s, err = s.RemoveTiles(removeSelector); err != nil {
			return s, err
		}
	}

	level := focusLevel
	if level == 0 {
		level = cfg.Tiles.FocusLevel
	}
	if level > 0 {
		index, rect, err := s.FocusCrop(level)
		if err != nil {
			return s, err
		}
		fmt.Printf("focus crop: image %d, %v\n", index, rect)
	}
	return s, nil
}

func loadOutline(path, name string) (models.Region, error) {
	cat, err := atlas.LoadCatalog(path)
	if err != nil {
		return models.Region{}, err
	}
	return catalogROI(cat, name)
}

// catalogROI picks one outline by name, or the whole catalog as one region
// when name is empty
func catalogROI(cat *atlas.YAMLCatalog, name string) (models.Region, error) {
	if name == "" {
		return atlas.CatalogRegion(cat)
	}
	o, err := cat.Outline(name)
	if err != nil {
		return models.Region{}, err
	}
	return models.NewPolygonRegion(name, models.PolygonFromVertices(o.X, o.Y)), nil
}

func tessellateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tessellate [series-dir]",
		Short: "Cover a ROI with tiles and list them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := prepare(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d tiles of %.2f px on image %d\n", s.ManualROI, s.Grid.Len(), s.Grid.L, s.DisplayIndex)
			for _, t := range s.Grid.Tiles() {
				fmt.Println(t)
			}
			return nil
		},
	}
	addROIFlags(cmd)
	return cmd
}

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [series-dir]",
		Short: "Cover a ROI with tiles and write them at full resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := prepare(cmd, args[0])
			if err != nil {
				return err
			}
			sum, err := s.Export()
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Printf("%s: %s\n", s.ManualROI, sum)
			return nil
		},
	}
	addROIFlags(cmd)
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [output-dir] [manual-roi]",
		Short: "Check an exported ROI against its tiles and positions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := session.LoadAudit(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s: slice %d, image %d, %d tiles of %.2f px\n",
				args[1], a.Snapshot.Slice, a.Snapshot.DisplayIndex, len(a.Snapshot.Tiles), a.Snapshot.TileEdge)
			for _, row := range a.Positions {
				fmt.Printf("  tile %d at (%d, %d)\n", row.ID, row.X, row.Y)
			}
			if a.Pixels > 0 {
				fmt.Printf("%d of %d ROI pixels covered (%.1f%%)\n", a.Covered, a.Pixels, 100*float64(a.Covered)/float64(a.Pixels))
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// config commands never read the configuration file
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetVerbose(verbose)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	})
	return cmd
}
