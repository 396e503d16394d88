package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowgrid/pkg/layout"
	"github.com/matzehuels/flowgrid/pkg/theme"
)

// fileConfig is the on-disk TOML configuration. Every field is optional;
// unset fields keep the engine defaults.
//
// Example:
//
//	theme = "modern"
//	font = "DejaVuSans.ttf"
//
//	[flowchart]
//	nodeSpacing = 60
//	rankSpacing = 60
//	orderPasses = 4
//
//	[themeVariables]
//	primaryColor = "#F4F6FA"
type fileConfig struct {
	Theme string           `toml:"theme"`
	Font  string           `toml:"font"`
	Flow  *flowchartConfig `toml:"flowchart"`
	Vars  *theme.Variables `toml:"themeVariables"`
}

type flowchartConfig struct {
	NodeSpacing  *float64 `toml:"nodeSpacing"`
	RankSpacing  *float64 `toml:"rankSpacing"`
	OrderPasses  *int     `toml:"orderPasses"`
	PortPadRatio *float64 `toml:"portPadRatio"`
	PortPadMin   *float64 `toml:"portPadMin"`
	PortPadMax   *float64 `toml:"portPadMax"`
	PortSideBias *float64 `toml:"portSideBias"`
	FastText     *bool    `toml:"fastText"`
	WrapAspect   *float64 `toml:"wrapAspect"`
	ComponentGap *float64 `toml:"componentGap"`
}

// loadConfig reads a TOML config file and folds it onto the defaults.
// An empty path returns defaults untouched.
func loadConfig(path string) (fileConfig, layout.Config, error) {
	cfg := layout.DefaultConfig()
	var fc fileConfig
	if path == "" {
		return fc, cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fc, cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if f := fc.Flow; f != nil {
		setF := func(dst *float64, src *float64) {
			if src != nil {
				*dst = *src
			}
		}
		setF(&cfg.NodeSpacing, f.NodeSpacing)
		setF(&cfg.RankSpacing, f.RankSpacing)
		if f.OrderPasses != nil {
			cfg.OrderPasses = *f.OrderPasses
		}
		setF(&cfg.PortPadRatio, f.PortPadRatio)
		setF(&cfg.PortPadMin, f.PortPadMin)
		setF(&cfg.PortPadMax, f.PortPadMax)
		setF(&cfg.PortSideBias, f.PortSideBias)
		if f.FastText != nil {
			cfg.FastText = *f.FastText
		}
		setF(&cfg.WrapAspect, f.WrapAspect)
		setF(&cfg.ComponentGap, f.ComponentGap)
	}
	return fc, cfg, nil
}
