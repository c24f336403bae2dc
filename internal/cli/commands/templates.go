package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed all:templates
var templateFS embed.FS

// dotfileNames maps embedded names to the dotfiles they become; go:embed
// would otherwise need all: patterns for every hidden file.
var dotfileNames = map[string]string{
	"gitignore": ".gitignore",
}

// templateFile is one entry of a project template.
type templateFile struct {
	src  string // path inside templateFS
	dest string // slash-separated path relative to the project root
	dir  bool   // directory only; marked in the template by a .gitkeep
}

// group is the init report section the file is listed under.
func (f templateFile) group() string {
	if strings.HasPrefix(f.dest, "snapshots/") || f.dest == "snapshots" {
		return "snapshots"
	}
	return "config"
}

// scaffoldResult lists what scaffold wrote and what it left alone.
type scaffoldResult struct {
	Written []templateFile
	Kept    []templateFile
}

// templatePlan lists the entries of a template without touching the disk.
func templatePlan(name string) ([]templateFile, error) {
	root := path.Join("templates", name)
	if _, err := fs.Stat(templateFS, root); err != nil {
		return nil, fmt.Errorf("unknown project template %q", name)
	}

	var plan []templateFile
	err := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(p, root+"/")
		dir, base := path.Split(rel)
		if base == ".gitkeep" {
			plan = append(plan, templateFile{src: p, dest: strings.TrimSuffix(dir, "/"), dir: true})
			return nil
		}
		if renamed, ok := dotfileNames[base]; ok {
			base = renamed
		}
		plan = append(plan, templateFile{src: p, dest: dir + base})
		return nil
	})
	return plan, err
}

// scaffold writes a template into targetDir. Existing files are kept
// unless force is set.
func scaffold(name, targetDir string, force bool) (*scaffoldResult, error) {
	plan, err := templatePlan(name)
	if err != nil {
		return nil, err
	}

	res := &scaffoldResult{}
	for _, f := range plan {
		target := filepath.Join(targetDir, filepath.FromSlash(f.dest))
		if f.dir {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := os.Stat(target); err == nil && !force {
			res.Kept = append(res.Kept, f)
			continue
		}
		content, err := templateFS.ReadFile(f.src)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, content, 0o600); err != nil {
			return nil, err
		}
		res.Written = append(res.Written, f)
	}
	return res, nil
}
