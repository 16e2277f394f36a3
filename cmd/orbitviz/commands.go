package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"orbitviz/adapters/db"
	"orbitviz/adapters/excel"
	"orbitviz/adapters/gonumplot"
	"orbitviz/adapters/jsondata"
	"orbitviz/adapters/yamldata"
	"orbitviz/app"
	"orbitviz/domain/core"
	"orbitviz/domain/fit"
	"orbitviz/domain/orbit"
	"orbitviz/internal"
	"orbitviz/internal/config"
	"orbitviz/internal/diagnostics"
	"orbitviz/internal/testkit"
	"orbitviz/ports"
)

// environment is what every subcommand is wired from.
type environment struct {
	cfg     *config.Config
	service *app.DiagnosticsService
	db      *sqlx.DB
}

// setup loads configuration and builds the service. withStore opens the
// fit-run database as well.
func setup(ctx context.Context, withStore bool) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.DefaultLogger

	env := &environment{cfg: cfg}
	var runs ports.FitRunRepository
	if withStore {
		env.db, err = db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		runs = db.NewFitRunRepository(env.db)
	}

	xlsx := excel.NewDataReader(logger)
	readers := app.ReadersByExtension{
		".json": jsondata.Reader{},
		".xlsx": xlsx,
		".xlsm": xlsx,
		".csv":  xlsx,
	}
	env.service = app.NewDiagnosticsService(readers, gonumplot.NewRenderer(cfg.Render), runs, cfg.Render, logger)
	return env, nil
}

func (e *environment) close() {
	if e.db != nil {
		e.db.Close()
	}
}

func readParams(path string) (orbit.Params, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return orbit.Params{}, fmt.Errorf("reading params: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamldata.ParseParams(body)
	}
	return jsondata.ParseParams(body)
}

func readFit(path string) (*fit.Result, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fit result: %w", err)
	}
	return jsondata.ParseFitResult(body)
}

func newRenderCmd() *cobra.Command {
	var paramsPath, dataPath, outDir, format string
	var phase float64

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the RV and sky figures of an orbit",
		Long: `Render the RV curve figure and the sky-plane orbit figure of a parameter set,
overlaying observations when --data is given (.json, .xlsx, .xlsm or .csv).

Example: orbitviz render --params params.json --data obs.xlsx --out figures --phase 0.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.close()

			params, err := readParams(paramsPath)
			if err != nil {
				return err
			}
			scene, err := env.service.LoadScene(cmd.Context(), params, dataPath)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = env.cfg.Paths.OutputDir
			}
			var at *float64
			if cmd.Flags().Changed("phase") {
				at = &phase
			}
			paths, err := env.service.WriteFigures(cmd.Context(), scene, outDir, format, at)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsPath, "params", "", "Orbital elements (JSON or YAML)")
	cmd.Flags().StringVar(&dataPath, "data", "", "Observations file")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&format, "format", "png", "Image format: png, svg, pdf or eps")
	cmd.Flags().Float64Var(&phase, "phase", 0, "Draw live markers at this phase")
	cmd.MarkFlagRequired("params")

	return cmd
}

func newScrubCmd() *cobra.Command {
	var paramsPath, framesDir string
	var from, to float64
	var steps, parallel int

	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Step the live markers through orbital phase",
		Long: `Move the RV and sky markers through evenly spaced phases and print each
position as a JSON line. With --frames, one RV and one sky frame is rendered per step.

Example: orbitviz scrub --params params.json --from 0 --to 1 --steps 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			env, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer env.close()

			params, err := readParams(paramsPath)
			if err != nil {
				return err
			}
			scene, err := env.service.BuildScene(params, nil)
			if err != nil {
				return err
			}

			phases := []float64{from}
			if steps > 1 {
				phases = floats.Span(make([]float64, steps), from, to)
			}

			reg := diagnostics.NewMarkerRegistry(discardArtists{})
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ph := range phases {
				pos, err := reg.Update(scene.Model, ph)
				if err != nil {
					return err
				}
				if err := enc.Encode(pos); err != nil {
					return err
				}
			}

			if framesDir == "" {
				return nil
			}
			for _, kind := range []ports.FigureKind{ports.FigureRV, ports.FigureSky} {
				if _, err := env.service.ScrubFrames(cmd.Context(), scene, kind, phases, framesDir, "png", parallel); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsPath, "params", "", "Orbital elements (JSON or YAML)")
	cmd.Flags().Float64Var(&from, "from", 0, "First phase")
	cmd.Flags().Float64Var(&to, "to", 1, "Last phase")
	cmd.Flags().IntVar(&steps, "steps", 10, "Number of phases")
	cmd.Flags().StringVar(&framesDir, "frames", "", "Render frames into this directory")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Concurrent frame renders")
	cmd.MarkFlagRequired("params")

	return cmd
}

// discardArtists lets the registry run without a drawing surface.
type discardArtists struct{}

type discardArtist struct{}

func (discardArtist) SetData(x, y float64) {}

func (discardArtists) NewMarker(diagnostics.MarkerSlot, float64, float64) diagnostics.Artist {
	return discardArtist{}
}

func newCornerCmd() *cobra.Command {
	var fitPath, runID, outPath string

	cmd := &cobra.Command{
		Use:   "corner",
		Short: "Draw the posterior corner diagram of a fit",
		Long: `Draw the corner diagram of a fit result, read from --fit or loaded from the
fit-run store with --run, and print the posterior median and 16/84 percentiles.

Example: orbitviz corner --fit fit.json --out corner.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (fitPath == "") == (runID == "") {
				return fmt.Errorf("exactly one of --fit or --run is required")
			}
			env, err := setup(cmd.Context(), runID != "")
			if err != nil {
				return err
			}
			defer env.close()

			var res *fit.Result
			if fitPath != "" {
				res, err = readFit(fitPath)
			} else {
				res, err = env.service.LoadRun(cmd.Context(), core.RunID(runID))
			}
			if err != nil {
				return err
			}

			out, err := env.service.Corner(cmd.Context(), res)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = filepath.Join(env.cfg.Paths.OutputDir, "corner.png")
			}
			if err := os.WriteFile(outPath, out.PNG, 0o644); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PARAMETER\tMEDIAN\tP16\tP84")
			for j, name := range res.FreeNames() {
				fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\n", diagnostics.ParamLabel(name, false),
					out.Summary.Median[j], out.Summary.Lower[j], out.Summary.Upper[j])
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&fitPath, "fit", "", "Fit result JSON")
	cmd.Flags().StringVar(&runID, "run", "", "Stored fit run ID")
	cmd.Flags().StringVar(&outPath, "out", "", "Output PNG (default OUTPUT_DIR/corner.png)")

	return cmd
}

func newStoreCmd() *cobra.Command {
	var fitPath, label string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Store a fit result in the fit-run database",
		Long: `Store a fit result in the database named by DATABASE_URL (SQLite by default,
PostgreSQL for postgres:// URLs) and print its run ID.

Example: orbitviz store --fit fit.json --label "first pass"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.close()

			res, err := readFit(fitPath)
			if err != nil {
				return err
			}
			if label != "" {
				res.Label = label
			}
			id, err := env.service.SaveRun(cmd.Context(), res)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&fitPath, "fit", "", "Fit result JSON")
	cmd.Flags().StringVar(&label, "label", "", "Label stored with the run")
	cmd.MarkFlagRequired("fit")

	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored fit runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer env.close()

			runs, err := env.service.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPARAMS\tFREE\tLABEL")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.ParamCount, r.FreeCount, r.Label)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")

	return cmd
}

func newSimulateCmd() *cobra.Command {
	var paramsPath, outPath, fitOut, free string
	var seed uint64
	var rvCount, asCount int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate synthetic observations of an orbit",
		Long: `Draw noisy RV and astrometric observations from a parameter set and write
them as a JSON data document. With --fit-out, a synthetic posterior over the
--free parameters is written as well.

Example: orbitviz simulate --params params.json --out obs.json --fit-out fit.json --free e,p,k1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := readParams(paramsPath)
			if err != nil {
				return err
			}
			sys, err := orbit.NewBinarySystem(params)
			if err != nil {
				return err
			}

			genCfg := testkit.DefaultObservationConfig()
			genCfg.Seed = seed
			genCfg.RVCount = rvCount
			genCfg.ASCount = asCount
			gen := testkit.NewObservationGenerator(genCfg)

			ds, err := gen.Generate(sys)
			if err != nil {
				return err
			}
			body, err := jsondata.MarshalDataSet(ds)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)

			if fitOut == "" {
				return nil
			}
			res, err := gen.GenerateChain(params, strings.Split(free, ","))
			if err != nil {
				return err
			}
			body, err = jsondata.MarshalFitResult(res)
			if err != nil {
				return err
			}
			if err := os.WriteFile(fitOut, body, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fitOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&paramsPath, "params", "", "Orbital elements (JSON or YAML)")
	cmd.Flags().StringVar(&outPath, "out", "observations.json", "Output data document")
	cmd.Flags().StringVar(&fitOut, "fit-out", "", "Also write a synthetic fit result here")
	cmd.Flags().StringVar(&free, "free", "e,i,omega,Omega,k1,k2,p", "Comma-separated free parameters of the synthetic fit")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().IntVar(&rvCount, "rv", 25, "RV epochs per component")
	cmd.Flags().IntVar(&asCount, "as", 12, "Astrometric epochs")
	cmd.MarkFlagRequired("params")

	return cmd
}
