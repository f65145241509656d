package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL design loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL loading process. It is agnostic to the
// origin of the paths and parses any valid block from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	model := &config.Model{}

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.decodeInto(ctx, model, hclFile.Body, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"param_classes", len(model.ParamClasses),
		"interfaces", len(model.Interfaces),
		"externals", len(model.Externals),
		"modules", len(model.Modules),
	)
	return model, nil
}

// LoadSource parses a single in-memory HCL document. The filename is only
// used in diagnostics.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	model := &config.Model{}
	if err := l.decodeInto(ctx, model, hclFile.Body, filename); err != nil {
		return nil, err
	}
	return model, nil
}

// decodeInto decodes the top-level blocks of one file body and appends
// their translations to the model.
func (l *Loader) decodeInto(ctx context.Context, model *config.Model, body hcl.Body, file string) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
	}

	for _, pc := range root.ParamClasses {
		def, err := l.translateParamClass(ctx, pc)
		if err != nil {
			return err
		}
		model.ParamClasses = append(model.ParamClasses, def)
	}
	for _, it := range root.Interfaces {
		model.Interfaces = append(model.Interfaces, l.translateInterface(it))
	}
	for _, eb := range root.Externals {
		model.Externals = append(model.Externals, l.translateExternal(eb))
	}
	for _, mb := range root.Modules {
		def, err := l.translateModule(ctx, mb)
		if err != nil {
			return err
		}
		model.Modules = append(model.Modules, def)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
		} else if filepath.Ext(path) == ".hcl" {
			add(path)
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
