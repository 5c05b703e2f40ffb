// Command skindump imports a skinned glTF model, plays one of its clips for a number of
// frames and prints the resulting bone palette.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/Carmen-Shannon/oxy-skin/engine/config"
	"github.com/Carmen-Shannon/oxy-skin/engine/game_object"
	"github.com/Carmen-Shannon/oxy-skin/engine/loader"
	"github.com/Carmen-Shannon/oxy-skin/engine/model"
	"github.com/Carmen-Shannon/oxy-skin/engine/profiler"
	"github.com/Carmen-Shannon/oxy-skin/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-skin/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	maxBones := flag.Int("max-bones", 0, "bone palette capacity (default 128)")
	workers := flag.Int("workers", 0, "import worker count (default NumCPU)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "log format: text or json")
	clipFlag := flag.String("clip", "", "clip name or index to play (default first clip)")
	frames := flag.Int("frames", 60, "number of frames to evaluate")
	dt := flag.Float64("dt", 1.0/60.0, "seconds per frame")
	seek := flag.Float64("time", -1, "seek to this play time in ticks instead of stepping frames")
	all := flag.Bool("all", false, "print identity palette entries too")
	dump := flag.Bool("dump", false, "dump the imported model structure")
	profile := flag.Bool("profile", false, "log frame stats while stepping")
	timeout := flag.Duration("timeout", 30*time.Second, "import timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: skindump [flags] model.glb\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var cfg config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Resolve(config.Flags{
		MaxBones:      *maxBones,
		ImportWorkers: *workers,
		LogLevel:      *logLevel,
		LogFormat:     *logFormat,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	opts := runOptions{
		path:    flag.Arg(0),
		clip:    *clipFlag,
		frames:  *frames,
		dt:      float32(*dt),
		seek:    float32(*seek),
		all:     *all,
		dump:    *dump,
		profile: *profile,
		timeout: *timeout,
	}
	if err := run(cfg, logger, opts, os.Stdout); err != nil {
		logger.WithError(err).Error("skindump failed")
		os.Exit(1)
	}
}

type runOptions struct {
	path    string
	clip    string
	frames  int
	dt      float32
	seek    float32
	all     bool
	dump    bool
	profile bool
	timeout time.Duration
}

func run(cfg config.Config, logger *logrus.Logger, opts runOptions, out io.Writer) error {
	ldr := loader.NewLoader(loader.BackendTypeGLTF, loader.WithConfig(cfg), loader.WithLogger(logger))
	defer ldr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	m, err := ldr.LoadAsync(opts.path).Wait(ctx)
	if err != nil {
		return errors.Wrapf(err, "load %s", opts.path)
	}

	if opts.dump {
		fmt.Fprint(out, dumpModel(m))
	}
	printSummary(out, m)

	if m.AnimationCount() == 0 {
		fmt.Fprintln(out, "model has no animations, palette is identity")
		return nil
	}

	anim := animator.NewAnimator(animator.WithModel(m), animator.WithLogger(logger))
	if err := playClip(anim, opts.clip); err != nil {
		return err
	}
	obj := game_object.NewGameObject(game_object.WithModel(m), game_object.WithAnimator(anim))

	sceneOpts := []scene.SceneBuilderOption{
		scene.WithActive(true),
		scene.WithObjects(obj),
		scene.WithLogger(logger),
	}
	if opts.profile {
		sceneOpts = append(sceneOpts, scene.WithProfiler(profiler.NewProfiler(logger)))
	}
	sc := scene.NewScene("skindump", sceneOpts...)
	defer sc.Close()

	if opts.seek >= 0 {
		anim.SetPlayTime(opts.seek)
	} else {
		for range opts.frames {
			sc.Update(opts.dt)
		}
	}

	clip := anim.CurrentClip()
	fmt.Fprintf(out, "\nclip %q at t=%.4f ticks (duration %.4f, %.2f ticks/s)\n",
		clip.Name(), anim.PlayTime(), clip.Duration(), clip.TicksPerSecond())
	printPalette(out, m, anim, opts.all)
	return nil
}

// playClip accepts a clip name or, failing that, a clip index.
func playClip(anim animator.Animator, clip string) error {
	if clip == "" {
		return anim.PlayIndex(0)
	}
	err := anim.PlayNamed(clip)
	if err == nil {
		return nil
	}
	if i, convErr := strconv.Atoi(clip); convErr == nil {
		return anim.PlayIndex(i)
	}
	return err
}

func printSummary(out io.Writer, m model.Model) {
	table := m.BoneWeights()
	fmt.Fprintf(out, "model %q: %d bones (capacity %d), %d meshes, %d clips\n",
		m.Name(), table.Count(), table.Capacity(), len(m.Meshes()), m.AnimationCount())
	for _, mesh := range m.Meshes() {
		fmt.Fprintf(out, "  mesh %q: %d vertices, %d dropped influences\n",
			mesh.Name, len(mesh.Bindings), mesh.DroppedInfluences)
	}
	for i, clip := range m.Animations() {
		fmt.Fprintf(out, "  clip %d %q: %d tracks, %.3fs\n", i, clip.Name(), clip.TrackCount(), clip.DurationSeconds())
	}
}

func printPalette(out io.Writer, m model.Model, anim animator.Animator, all bool) {
	identity := mgl32.Ident4()
	for i, name := range m.BoneWeights().Names() {
		mat := anim.FinalBoneMatrix(i)
		if !all && mat.ApproxEqual(identity) {
			continue
		}
		fmt.Fprintf(out, "bone %3d %q\n%s", i, name, mat.String())
	}
}
