package distill

import "path"

// GardenConfig thresholds an automatic distillation run the way the
// original's Gardener module does: rather than distilling on every
// invocation, it only fires once enough raw episodic material has
// accumulated.
type GardenConfig struct {
	Threshold int // episodic file count that triggers a run
}

func (c GardenConfig) withDefaults() GardenConfig {
	if c.Threshold <= 0 {
		c.Threshold = 50
	}
	return c
}

// ShouldGarden reports whether opts.SourceDir holds at least
// cfg.Threshold episodic files, and the count found.
func (e *Engine) ShouldGarden(cfg GardenConfig, opts Options) (bool, int, error) {
	cfg = cfg.withDefaults()
	opts = opts.withDefaults()

	root := path.Join("current", opts.SourceDir)
	if !e.adapter.IsDir(root) {
		return false, 0, nil
	}
	files, err := e.listFiles(root)
	if err != nil {
		return false, 0, err
	}
	return len(files) >= cfg.Threshold, len(files), nil
}
