package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"tryon/internal/bootstrap"
	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/pipeline"
	"tryon/internal/providers/video"
)

const usage = `usage: tryonctl <command> [flags]

commands:
  image   try an outfit on a person image
  video   animate an image into a short clip
  full    image then video
  bench   run every video model over one image
  stats   print per-model latency

run "tryonctl <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		fmt.Fprint(os.Stdout, usage)
		fmt.Fprintln(os.Stdout, "\nenvironment:")
		fmt.Fprintln(os.Stdout, infra.ConfigUsage())
		return
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := bootstrap.Build(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("tryonctl: setup failed")
	}
	defer svc.Close()

	switch cmd {
	case "image":
		err = runImage(ctx, svc, args)
	case "video":
		err = runVideo(ctx, svc, args)
	case "full":
		err = runFull(ctx, svc, args)
	case "bench":
		err = runBench(ctx, svc, args)
	case "stats":
		err = runStats(ctx, svc)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) || errors.Is(err, domain.ErrUnknownModel) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logger.Error().Err(err).Str("command", cmd).Msg("tryonctl failed")
		os.Exit(1)
	}
}

type imageFlags struct {
	person, face, top, bottom, background string
	cues, description, model              string
	twoStage, noDownload                  bool
}

func (f *imageFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.person, "person", "", "person image: local path, URL or data URI (required)")
	fs.StringVar(&f.face, "face", "", "optional face close-up")
	fs.StringVar(&f.top, "top", "", "outfit top: catalog name, URL or free text")
	fs.StringVar(&f.bottom, "bottom", "", "outfit bottom: catalog name, URL or free text")
	fs.StringVar(&f.background, "background", "", "background catalog name or free text")
	fs.StringVar(&f.cues, "cues", "", "visual cues for the shot")
	fs.StringVar(&f.description, "description", "", "scene description")
	fs.StringVar(&f.model, "model", "", "image adapter key (default from IMAGE_MODEL)")
	fs.BoolVar(&f.twoStage, "two-stage", false, "identity first, then outfit edit")
}

func (f *imageFlags) input(svc *bootstrap.Services) pipeline.ImageInput {
	outfit := pipeline.ResolveOutfit(svc.Catalog, f.top, f.bottom)
	in := pipeline.ImageInput{
		Person: pipeline.DefaultPerson(),
		Environment: pipeline.EnvironmentAttributes{
			ApparelType:     outfit.Apparel,
			InferredSetting: pipeline.Setting(svc.Catalog, f.background),
			VisualCues:      f.cues,
		},
		Description:  f.description,
		PersonImage:  domain.ParseReference(f.person),
		OutfitImages: outfit.References,
		Model:        f.model,
	}
	if strings.TrimSpace(f.face) != "" {
		face := domain.ParseReference(f.face)
		in.FaceImage = &face
	}
	return in
}

// generateImage runs the single or two-stage pipeline and returns the final
// result together with every stage result for printing.
func generateImage(ctx context.Context, svc *bootstrap.Services, f *imageFlags) (*domain.Result, []*domain.Result, error) {
	in := f.input(svc)
	if f.twoStage {
		res, err := svc.Images.RunTwoStage(ctx, in, !f.noDownload)
		if err != nil {
			return nil, nil, err
		}
		return res.Outfit, []*domain.Result{res.Identity, res.Outfit}, nil
	}
	res, err := svc.Images.Run(ctx, in, !f.noDownload)
	if err != nil {
		return nil, nil, err
	}
	return res, []*domain.Result{res}, nil
}

func runImage(ctx context.Context, svc *bootstrap.Services, args []string) error {
	var f imageFlags
	fs := flag.NewFlagSet("image", flag.ExitOnError)
	f.register(fs)
	fs.BoolVar(&f.noDownload, "no-download", false, "keep remote URLs, write nothing")
	_ = fs.Parse(args)

	_, stages, err := generateImage(ctx, svc, &f)
	if err != nil {
		return err
	}
	return printJSON(summaries(stages...))
}

type videoFlags struct {
	image, apparel, motion, model string
	duration                      int
}

func (f *videoFlags) register(fs *flag.FlagSet, withImage bool) {
	if withImage {
		fs.StringVar(&f.image, "image", "", "reference image: local path, URL or data URI (required)")
	}
	fs.StringVar(&f.apparel, "apparel", "", "apparel description for the prompt")
	fs.StringVar(&f.motion, "motion", "", "motion description")
	fs.IntVar(&f.duration, "duration", video.DefaultDurationSec, "clip length in seconds (4, 5, 6, 8 or 9)")
}

func (f *videoFlags) input(ref domain.Reference, model string) pipeline.VideoInput {
	return pipeline.VideoInput{
		Reference:   ref,
		Apparel:     f.apparel,
		Motion:      f.motion,
		Model:       model,
		DurationSec: f.duration,
	}
}

func runVideo(ctx context.Context, svc *bootstrap.Services, args []string) error {
	var f videoFlags
	var noDownload bool
	fs := flag.NewFlagSet("video", flag.ExitOnError)
	f.register(fs, true)
	fs.StringVar(&f.model, "model", "", "video model (default from VIDEO_MODEL)")
	fs.BoolVar(&noDownload, "no-download", false, "keep remote URLs, write nothing")
	_ = fs.Parse(args)

	res, err := svc.Videos.Run(ctx, f.input(domain.ParseReference(f.image), f.model), !noDownload)
	if err != nil {
		return err
	}
	return printJSON(summaries(res))
}

func runFull(ctx context.Context, svc *bootstrap.Services, args []string) error {
	var img imageFlags
	var vid videoFlags
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	img.register(fs)
	vid.register(fs, false)
	fs.StringVar(&vid.model, "video-model", "", "video model (default from VIDEO_MODEL)")
	fs.BoolVar(&img.noDownload, "no-download", false, "keep remote URLs, write nothing")
	_ = fs.Parse(args)

	if strings.TrimSpace(vid.apparel) == "" {
		vid.apparel = pipeline.ApparelDescription(img.top, img.bottom)
	}
	// fail fast on video flags before paying for the image
	if _, _, err := svc.Videos.Prepare(vid.input(domain.Reference{Kind: domain.ReferenceURL, Value: "pending"}, vid.model)); err != nil {
		return err
	}

	final, stages, err := generateImage(ctx, svc, &img)
	if err != nil {
		return err
	}
	base := domain.ParseReference(final.PrimaryAsset())
	clip, err := svc.Videos.Run(ctx, vid.input(base, vid.model), !img.noDownload)
	if err != nil {
		return err
	}
	return printJSON(summaries(append(stages, clip)...))
}

type benchRow struct {
	Model      string   `json:"model"`
	Endpoint   string   `json:"endpoint"`
	LatencySec float64  `json:"latency_sec,omitempty"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func runBench(ctx context.Context, svc *bootstrap.Services, args []string) error {
	var f videoFlags
	var models string
	var noDownload bool
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	f.register(fs, true)
	fs.StringVar(&models, "models", "", "comma separated models (default: all)")
	fs.BoolVar(&noDownload, "no-download", false, "keep remote URLs, write nothing")
	_ = fs.Parse(args)

	selected := video.Models()
	if strings.TrimSpace(models) != "" {
		selected = selected[:0]
		for _, name := range strings.Split(models, ",") {
			m, err := video.ParseModel(name)
			if err != nil {
				return err
			}
			selected = append(selected, m)
		}
	}

	ref := domain.ParseReference(f.image)
	rows := make([]benchRow, 0, len(selected))
	// sequential so latencies are not skewed by each other
	for _, m := range selected {
		gen, _, err := svc.Videos.Prepare(f.input(ref, string(m)))
		if err != nil {
			return err
		}
		row := benchRow{Model: string(m), Endpoint: gen.Endpoint()}
		res, err := svc.Videos.Run(ctx, f.input(ref, string(m)), !noDownload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			row.Error = err.Error()
		} else {
			row.LatencySec = res.LatencySec
			row.Files = res.LocalFiles
		}
		rows = append(rows, row)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tLATENCY\tRESULT")
	for _, row := range rows {
		result := strings.Join(row.Files, " ")
		latency := fmt.Sprintf("%.2fs", row.LatencySec)
		if row.Error != "" {
			result, latency = "error: "+row.Error, "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Model, latency, result)
	}
	return tw.Flush()
}

func runStats(ctx context.Context, svc *bootstrap.Services) error {
	items, err := svc.Stats.LatencyStats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "source: %s\n", svc.StatsSource)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tCOUNT\tAVG\tMIN\tMAX")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2fs\t%.2fs\t%.2fs\n", s.Provider, s.Model, s.Count, s.AvgSec, s.MinSec, s.MaxSec)
	}
	return tw.Flush()
}

type resultSummary struct {
	Stage        string   `json:"stage,omitempty"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	VideoModel   string   `json:"video_model,omitempty"`
	LatencySec   float64  `json:"latency_sec"`
	Assets       []string `json:"asset_urls"`
	Files        []string `json:"local_files"`
	MetadataFile string   `json:"metadata_file,omitempty"`
}

func summaries(results ...*domain.Result) []resultSummary {
	out := make([]resultSummary, 0, len(results))
	for _, r := range results {
		out = append(out, resultSummary{
			Stage:        r.Stage,
			Provider:     r.Provider,
			Model:        r.Model,
			VideoModel:   r.VideoModel,
			LatencySec:   r.LatencySec,
			Assets:       r.AssetURLs,
			Files:        r.LocalFiles,
			MetadataFile: r.MetadataFile,
		})
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
