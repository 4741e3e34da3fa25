// Package main is the airpose command line tool.
package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/swdee/go-airpose"
)

const (
	// Flags.
	flagConfig    = "config"
	flagDebug     = "debug"
	flagInput     = "input"
	flagOutput    = "output"
	flagFocal     = "focal"
	flagCX        = "cx"
	flagCY        = "cy"
	flagWidth     = "width"
	flagHeight    = "height"
	flagWeights   = "weights"
	flagMean      = "mean-params"
	flagFP16      = "fp16"
	flagWorkers   = "workers"
	flagKeypoints = "keypoints"
	flagPreview   = "preview"
	flagFrames    = "frames"

	// Archive keys.
	keyJoints3D  = "joints3d"
	keyKeypoints = "keypoints"
	keyCenters   = "centers"
	keyFeatures  = "features"
	keyBBox      = "bbox"
	keyGTJoints  = "gt_joints"
	keyGTTrans   = "gt_trans"
	keyGTPose    = "gt_pose"
)

// app holds the state shared by the commands
type app struct {
	log *zap.Logger
	cfg airpose.Config
}

func main() {

	a := &app{log: zap.NewNop(), cfg: airpose.DefaultConfig()}

	cliApp := &cli.App{
		Name:  "airpose",
		Usage: "depth aware 3D human pose estimation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			return a.setup(c)
		},
		After: func(c *cli.Context) error {
			// stderr sync fails on some terminals
			_ = a.log.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "depth",
				Usage: "resolve the root depth of camera space skeletons against 2D keypoints",
				UsageText: "airpose depth --input skeletons.npz --output depth.npz\n\n" +
					"input arrays: joints3d (B,J,3), keypoints (B,J,2), optional centers (B,2)",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagInput, Required: true, Usage: "input .npz `FILE`"},
					&cli.PathFlag{Name: flagOutput, Usage: "write mean, std and candidates to .npz `FILE`"},
					&cli.Float64Flag{Name: flagFocal, Usage: "focal length in pixels, overrides the config"},
					&cli.Float64Flag{Name: flagCX, Usage: "principal point x when the input has no centers"},
					&cli.Float64Flag{Name: flagCY, Usage: "principal point y when the input has no centers"},
					&cli.IntFlag{Name: flagWorkers, Usage: "number of parallel workers, overrides the config"},
				},
				Action: a.depthAction,
			},
			{
				Name:  "regress",
				Usage: "regress pose, shape and position from backbone features",
				UsageText: "airpose regress --input features.npz --output poses.npz\n\n" +
					"input arrays: features (B,2048), keypoints (B,22,2), optional bbox (B,3),\n" +
					"centers (B,2), gt_joints (B,22,3), gt_trans (B,3) and gt_pose (B,22,3)",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagInput, Required: true, Usage: "input .npz `FILE`"},
					&cli.PathFlag{Name: flagOutput, Usage: "write the estimates to .npz `FILE`"},
					&cli.PathFlag{Name: flagFP16, Usage: "read features from a raw little endian float16 `FILE`"},
					&cli.PathFlag{Name: flagWeights, Usage: "regressor weights .npz, overrides the config"},
					&cli.PathFlag{Name: flagMean, Usage: "mean pose and shape .npz, overrides the config"},
					&cli.Float64Flag{Name: flagFocal, Usage: "focal length in pixels, overrides the config"},
					&cli.Float64Flag{Name: flagCX, Usage: "principal point x when the input has no centers"},
					&cli.Float64Flag{Name: flagCY, Usage: "principal point y when the input has no centers"},
					&cli.IntFlag{Name: flagWidth, Usage: "image width used to derive bbox when absent"},
					&cli.IntFlag{Name: flagHeight, Usage: "image height used to derive bbox when absent"},
				},
				Action: a.regressAction,
			},
			{
				Name:      "crop",
				Usage:     "cut normalised person crops for the backbone",
				ArgsUsage: "IMAGE",
				UsageText: "airpose crop --keypoints people.npz --output crops.npz IMAGE\n\n" +
					"input arrays: keypoints (P,J,2)",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagKeypoints, Required: true, Usage: "keypoints .npz `FILE`"},
					&cli.PathFlag{Name: flagOutput, Required: true, Usage: "write crops and bbox to .npz `FILE`"},
					&cli.PathFlag{Name: flagPreview, Usage: "write a letterboxed skeleton preview to `FILE`"},
				},
				Action: a.cropAction,
			},
			{
				Name:      "render",
				Usage:     "draw skeletons with tracked root depth over a sequence of frames",
				ArgsUsage: "IMAGE...",
				UsageText: "airpose render --frames sequence.npz --output outdir frame0.jpg frame1.jpg\n\n" +
					"input arrays: keypoints (F,P,J,2), joints3d (F,P,J,3)",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: flagFrames, Required: true, Usage: "per frame keypoints and joints .npz `FILE`"},
					&cli.PathFlag{Name: flagOutput, Required: true, Usage: "output `DIR`"},
					&cli.Float64Flag{Name: flagFocal, Usage: "focal length in pixels, overrides the config"},
				},
				Action: a.renderAction,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// setup builds the logger and loads the configuration
func (a *app) setup(c *cli.Context) error {

	var err error

	if c.Bool(flagDebug) {
		a.log, err = zap.NewDevelopment()
	} else {
		a.log, err = zap.NewProduction()
	}

	if err != nil {
		return errors.Wrap(err, "error creating logger")
	}

	if path := c.String(flagConfig); path != "" {
		if a.cfg, err = airpose.LoadConfig(path); err != nil {
			return err
		}

		a.log.Debug("loaded config", zap.String("path", path))
	}

	return nil
}

// config returns the configuration with command flag overrides applied
func (a *app) config(c *cli.Context) (airpose.Config, error) {

	cfg := a.cfg

	if c.IsSet(flagFocal) {
		cfg.Focal = c.Float64(flagFocal)
	}

	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}

	if c.IsSet(flagWeights) {
		cfg.Weights = c.Path(flagWeights)
	}

	if c.IsSet(flagMean) {
		cfg.MeanParams = c.Path(flagMean)
	}

	return cfg, cfg.Validate()
}
