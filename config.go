package airpose

import (
	"encoding/json"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/swdee/go-airpose/body"
	"github.com/swdee/go-airpose/depth"
	"github.com/swdee/go-airpose/loss"
	"github.com/swdee/go-airpose/regressor"
)

// Config holds the Estimator settings
type Config struct {
	// Focal is the camera focal length in pixels
	Focal float64 `json:"focal"`
	// Joints is the number of joints used for depth triangulation
	Joints int `json:"joints"`
	// Iterations is the number of regressor refinement steps
	Iterations int `json:"iterations"`
	// Workers bounds the parallelism of batched depth estimation
	Workers int `json:"workers"`
	// Weights is the .npz export of the regression head, empty uses freshly
	// initialised weights
	Weights string `json:"weights"`
	// MeanParams is the .npz file of mean pose and shape, empty uses identity
	// rotations and zero shape
	MeanParams string `json:"mean_params"`
	// JointNames is an optional text file of joint names
	JointNames string `json:"joint_names"`
	// ImageSize is the side of the square network input crop
	ImageSize int `json:"image_size"`
	// UnclipRatio grows the keypoint outline when building person boxes
	UnclipRatio float64 `json:"unclip_ratio"`
	// DepthNoise is the process noise of the per person depth filter
	DepthNoise float64 `json:"depth_noise"`
	// Loss weights the supervision terms
	Loss loss.Weights `json:"loss"`
}

// DefaultConfig returns the default settings
func DefaultConfig() Config {
	return Config{
		Focal:       1000,
		Joints:      depth.DefaultJoints,
		Iterations:  regressor.DefaultIterations,
		Workers:     1,
		ImageSize:   224,
		UnclipRatio: 1.2,
		DepthNoise:  0.05,
		Loss:        loss.DefaultWeights(),
	}
}

// Validate checks the settings are usable
func (c Config) Validate() error {

	if !(c.Focal > 0) {
		return errors.Errorf("focal must be positive, got %v", c.Focal)
	}

	if c.Joints < 2 || c.Joints > body.NumJoints {
		return errors.Errorf("joints must be in [2, %d], got %d", body.NumJoints, c.Joints)
	}

	if c.Iterations < 1 {
		return errors.Wrapf(regressor.ErrInvalidIterations, "got %d", c.Iterations)
	}

	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.ImageSize < 1 {
		return errors.Errorf("image size must be positive, got %d", c.ImageSize)
	}

	if c.UnclipRatio < 0 {
		return errors.Errorf("unclip ratio must not be negative, got %v", c.UnclipRatio)
	}

	if c.DepthNoise < 0 {
		return errors.Errorf("depth noise must not be negative, got %v", c.DepthNoise)
	}

	return nil
}

// LoadConfig reads a JSON config file over the defaults.  Unknown keys are
// rejected and numbers given as strings are accepted.
func LoadConfig(path string) (Config, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return Config{}, errors.Wrap(err, "error reading config")
	}

	var attrs map[string]interface{}

	if err := json.Unmarshal(data, &attrs); err != nil {
		return Config{}, errors.Wrapf(err, "error parsing config %s", path)
	}

	cfg, err := DecodeConfig(attrs)

	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}

	return cfg, nil
}

// DecodeConfig decodes attributes over the defaults and validates the result
func DecodeConfig(attrs map[string]interface{}) (Config, error) {

	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})

	if err != nil {
		return Config{}, err
	}

	if err := decoder.Decode(attrs); err != nil {
		return Config{}, errors.Wrap(err, "error decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
