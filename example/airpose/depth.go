package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/swdee/go-airpose/depth"
	"github.com/swdee/go-airpose/regressor"
)

// depthAction triangulates the root depth of every skeleton in the input
func (a *app) depthAction(c *cli.Context) error {

	cfg, err := a.config(c)

	if err != nil {
		return err
	}

	ar, err := regressor.OpenArchive(c.Path(flagInput))

	if err != nil {
		return err
	}

	defer ar.Close()

	j3d, err := readVecs3(ar, keyJoints3D)

	if err != nil {
		return err
	}

	j2d, err := readVecs2(ar, keyKeypoints)

	if err != nil {
		return err
	}

	if len(j3d) == 0 {
		return errors.New("empty batch")
	}

	centers, err := readCenters(ar, len(j3d), r2.Vec{X: c.Float64(flagCX), Y: c.Float64(flagCY)})

	if err != nil {
		return err
	}

	solver := depth.NewSolver(depth.WithJoints(cfg.Joints), depth.WithLogger(a.log))

	res, err := solver.DepthAwareParallel(j3d, j2d, cfg.Focal, centers, cfg.Workers)

	if err != nil && res.Mean == nil {
		return err
	}

	failed := len(multierr.Errors(err))

	for i := range res.Mean {
		if !res.Valid(i) {
			fmt.Printf("%4d  failed: %v\n", i, res.Errs[i])
			continue
		}

		fmt.Printf("%4d  z=%.4f  std=%.4f  range=%.4f  candidates=%d\n", i,
			res.Mean[i], res.Std[i], res.Estimates[i].Range,
			len(res.Solutions[i].Sorted()))
	}

	a.log.Info("depth resolved",
		zap.Int("batch", len(res.Mean)),
		zap.Int("failed", failed),
	)

	if out := c.Path(flagOutput); out != "" {

		arrays := map[string]interface{}{
			"mean": res.Mean,
			"std":  res.Std,
		}

		// rows are padded with +Inf
		if cands := res.CandidateMatrix(); cands != nil {
			arrays["candidates"] = cands
		}

		if err := regressor.WriteArchive(out, arrays); err != nil {
			return err
		}

		a.log.Info("wrote depth archive", zap.String("path", out))
	}

	return nil
}
