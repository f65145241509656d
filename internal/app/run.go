package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/assemble"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/drc"
	"github.com/specialistvlad/hdlforge/internal/export"
)

// Result is the document Run writes to the output writer.
type Result struct {
	Design   *export.Design `json:"design"`
	Findings []drc.Finding  `json:"findings,omitempty"`
}

// Run loads the design files, elaborates the top module and writes the
// exported design as JSON.
func (a *App) Run(ctx context.Context) error {
	res, err := a.Elaborate(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.outW)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// Elaborate runs the pipeline without writing anything.
func (a *App) Elaborate(ctx context.Context) (*Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Elaborate method started.", "design_path", a.config.DesignPath)

	model, err := a.loader.Load(ctx, a.config.DesignPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	a.logger.Debug("Design loaded and translated into unified model.", "modules", len(model.Modules))

	design, err := assemble.New(a.registry, assemble.WithElaborator(a.elab)).Assemble(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble design: %w", err)
	}
	top, err := design.Top(a.config.Top)
	if err != nil {
		return nil, err
	}

	stats := a.elab.Cache().Stats()
	a.logger.Info("Design elaborated.", "top", top.Name(), "generated", stats.Entries, "cache_hits", stats.Hits)

	view, err := export.FromModule(top)
	if err != nil {
		return nil, fmt.Errorf("failed to export design: %w", err)
	}
	res := &Result{Design: view}

	if a.config.Validate {
		v, err := export.NewValidator()
		if err != nil {
			return nil, err
		}
		if err := v.Validate(view); err != nil {
			return nil, fmt.Errorf("exported design is invalid: %w", err)
		}
		a.logger.Debug("Export view validated against schema.")
	}

	if a.config.CheckRules {
		checker, err := drc.New(ctx)
		if err != nil {
			return nil, err
		}
		findings, err := checker.Check(ctx, view)
		if err != nil {
			return nil, err
		}
		for _, f := range findings {
			a.logger.Warn(f.Message, "rule", f.Rule, "module", f.Module, "member", f.Member)
		}
		a.logger.Info("Design rules checked.", "findings", len(findings))
		res.Findings = findings
	}

	a.logger.Debug("App.Elaborate method finished.")
	return res, nil
}
