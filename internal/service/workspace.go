package service

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"graphsnap/internal/domain"
)

// WorkspaceModeler crawls installed package trees and records their
// declared surface as a specification model: package manifests, interface
// definition files, and node executables. Every node specification starts
// unvalidated; a later snapshot run learns its interface from the first
// observed instance.
type WorkspaceModeler struct {
	model *domain.Model
}

// NewWorkspaceModeler returns a modeler with an empty specification
// model.
func NewWorkspaceModeler() *WorkspaceModeler {
	return &WorkspaceModeler{model: domain.NewModel()}
}

// Crawl scans every install prefix for packages and returns the assembled
// specification model. A package lives under <prefix>/share/<name> with a
// package.xml manifest; its executables live under <prefix>/lib/<name>.
func (w *WorkspaceModeler) Crawl(prefixes []string) (*domain.Model, error) {
	log.Info("collecting package information")
	found := 0
	for _, prefix := range prefixes {
		shareDir := filepath.Join(prefix, "share")
		entries, err := os.ReadDir(shareDir)
		if err != nil {
			log.WithFields(log.Fields{"prefix": prefix, "error": err}).Warn("cannot read install prefix")
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			pkgName := entry.Name()
			sharePath := filepath.Join(shareDir, pkgName)
			if _, err := os.Stat(filepath.Join(sharePath, "package.xml")); err != nil {
				continue
			}
			if err := w.crawlPackage(prefix, pkgName, sharePath); err != nil {
				log.WithFields(log.Fields{"package": pkgName, "error": err}).Warn("skipping package")
				continue
			}
			found++
		}
	}
	if found == 0 {
		log.WithField("prefixes", prefixes).Warn("no packages found on system")
	} else {
		log.WithField("packages", found).Info("found packages on system")
	}
	return w.model, nil
}

// Model returns the specification model assembled so far.
func (w *WorkspaceModeler) Model() *domain.Model { return w.model }

func (w *WorkspaceModeler) crawlPackage(prefix, pkgName, sharePath string) error {
	manifest, err := readPackageManifest(filepath.Join(sharePath, "package.xml"))
	if err != nil {
		return err
	}
	pkg := w.model.PackageSpecifications.Get(pkgName)
	pkg.Merge(&domain.PackageSpecification{
		Meta:           domain.Meta{Name: pkgName, Source: domain.SourceWorkspace},
		SharePath:      sharePath,
		Dependencies:   manifest.dependencies(),
		PackageVersion: manifest.Version,
	})

	libPath := filepath.Join(prefix, "lib", pkgName)
	if _, err := os.Stat(libPath); err == nil {
		if nodes := w.findExecutables(pkgName, libPath); len(nodes) > 0 {
			w.mergePackage(pkg, &domain.PackageSpecification{Nodes: nodes})
		}
	}

	w.collectPackageSpecs(pkgName, sharePath, pkg)
	return nil
}

// mergePackage folds partial findings into a package specification,
// keeping its identity fields intact.
func (w *WorkspaceModeler) mergePackage(pkg *domain.PackageSpecification, in *domain.PackageSpecification) {
	in.Name = pkg.Name
	in.Source = domain.SourceWorkspace
	pkg.Merge(in)
}

// Entries of a package share directory that carry no specification
// content.
var skipShareEntries = map[string]struct{}{
	"cmake":            {},
	"environment":      {},
	"hook":             {},
	"local_setup.bash": {},
	"local_setup.dsv":  {},
	"local_setup.sh":   {},
	"local_setup.zsh":  {},
	"package.dsv":      {},
	"package.xml":      {},
}

var plainShareFiles = map[string]struct{}{
	"CMakeLists.txt": {},
	"setup.cfg":      {},
	"setup.py":       {},
	"README.md":      {},
	"CHANGELOG.rst":  {},
}

// collectPackageSpecs walks one package's share tree. The msg, srv, and
// action directories hold interface definitions; launch and parameter
// directories contribute file inventories; bin and scripts hold more
// executables; anything else is descended into.
func (w *WorkspaceModeler) collectPackageSpecs(pkgName, searchPath string, pkg *domain.PackageSpecification) {
	entries, err := os.ReadDir(searchPath)
	if err != nil {
		log.WithFields(log.Fields{"package": pkgName, "path": searchPath, "error": err}).Debug("cannot read package directory")
		return
	}
	for _, entry := range entries {
		childName := entry.Name()
		if _, skip := skipShareEntries[childName]; skip {
			continue
		}
		fullPath := filepath.Join(searchPath, childName)
		info, err := os.Stat(fullPath)
		if err != nil {
			log.WithFields(log.Fields{"path": fullPath, "error": err}).Debug("cannot stat package entry")
			continue
		}

		if !info.IsDir() {
			if _, plain := plainShareFiles[childName]; plain {
				continue
			}
			if isExecutable(info.Mode()) {
				node := w.recordNodeExecutable(pkgName, fullPath)
				w.mergePackage(pkg, &domain.PackageSpecification{Nodes: []string{node}})
			}
			continue
		}

		switch childName {
		case "action":
			names := w.extractTypeSpecs(domain.InterfaceAction, fullPath, pkgName, nil)
			w.mergePackage(pkg, &domain.PackageSpecification{Actions: names})
		case "msg":
			names := w.extractTypeSpecs(domain.InterfaceMessage, fullPath, pkgName, nil)
			w.mergePackage(pkg, &domain.PackageSpecification{Messages: names})
		case "srv":
			names := w.extractTypeSpecs(domain.InterfaceService, fullPath, pkgName, nil)
			w.mergePackage(pkg, &domain.PackageSpecification{Services: names})
		case "launch":
			var launches []string
			for _, ext := range []string{".launch", ".xml", ".py"} {
				launches = append(launches, findFilesOfType(ext, fullPath, childName)...)
			}
			w.mergePackage(pkg, &domain.PackageSpecification{
				LaunchFiles:    launches,
				ParameterFiles: findFilesOfType(".yaml", fullPath, childName),
			})
		case "cfg", "config", "param", "yaml":
			var params []string
			for _, ext := range []string{".cfg", ".csv", ".json", ".txt", ".xml", ".yaml"} {
				params = append(params, findFilesOfType(ext, fullPath, childName)...)
			}
			w.mergePackage(pkg, &domain.PackageSpecification{ParameterFiles: params})
		case "bin", "scripts":
			if nodes := w.findExecutables(pkgName, fullPath); len(nodes) > 0 {
				w.mergePackage(pkg, &domain.PackageSpecification{Nodes: nodes})
			}
		default:
			w.collectPackageSpecs(pkgName, fullPath, pkg)
		}
	}
}

// extractTypeSpecs records every interface definition file under dir.
// Subdirectories contribute their name to the reference, so nested
// definitions stay distinct.
func (w *WorkspaceModeler) extractTypeSpecs(kind domain.InterfaceKind, dir, pkgName string, baseTokens []string) []string {
	bank := w.model.TypeSpecificationBank(kind)
	ext := "." + string(kind)

	var names []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithFields(log.Fields{"path": dir, "error": err}).Debug("cannot read interface directory")
		return nil
	}
	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			names = append(names, w.extractTypeSpecs(kind, childPath, pkgName, append(baseTokens, entry.Name()))...)
			continue
		}
		if filepath.Ext(entry.Name()) != ext {
			continue
		}
		content, err := os.ReadFile(childPath)
		if err != nil {
			log.WithFields(log.Fields{"path": childPath, "error": err}).Warn("cannot read interface definition")
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ext)
		refName := strings.Join(append(append([]string{}, baseTokens...), base), "/")
		names = append(names, refName)

		fullRef := pkgName + "/" + refName
		spec := bank.Get(fullRef)
		spec.Merge(&domain.TypeSpecification{
			Meta:          domain.Meta{Name: fullRef, Source: domain.SourceWorkspace},
			ConstructType: kind,
			FilePath:      childPath,
			Package:       pkgName,
			Definition:    "\n" + string(content),
		})
	}
	return names
}

// findExecutables walks dir for executable files, recording each as a
// node specification and returning the bare node names.
func (w *WorkspaceModeler) findExecutables(pkgName, dir string) []string {
	var nodes []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithFields(log.Fields{"path": dir, "error": err}).Debug("cannot read executable directory")
		return nil
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == "__pycache__" || name == "hook" || strings.Contains(name, "egg-info") {
			continue
		}
		fullPath := filepath.Join(dir, name)
		info, err := os.Stat(fullPath)
		if err != nil {
			continue
		}
		if info.IsDir() {
			nodes = append(nodes, w.findExecutables(pkgName, fullPath)...)
			continue
		}
		if isExecutable(info.Mode()) {
			nodes = append(nodes, w.recordNodeExecutable(pkgName, fullPath))
		}
	}
	return nodes
}

// recordNodeExecutable stores one executable as an unvalidated node
// specification keyed by "package/name". Re-discovering the same name
// accumulates file paths rather than overwriting. Symlinks are resolved
// so the stored path matches what a running process reports.
func (w *WorkspaceModeler) recordNodeExecutable(pkgName, filePath string) string {
	if resolved, err := filepath.EvalSymlinks(filePath); err == nil {
		filePath = resolved
	}
	base := strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	refName := pkgName + "/" + base
	if existing, ok := w.model.NodeSpecifications.Lookup(refName); ok && !existing.FilePath.Contains(filePath) {
		log.WithFields(log.Fields{"node": refName, "file": filePath}).Warn("duplicate node executable discovered")
	}
	spec := w.model.NodeSpecifications.Get(refName)
	spec.Merge(&domain.NodeSpecification{
		Meta:     domain.Meta{Name: refName, Source: domain.SourceWorkspace},
		Package:  pkgName,
		FilePath: domain.FlexStrings{filePath},
	})
	return base
}

// findFilesOfType returns every file under dir with the given extension,
// prefixed with the share subfolder it came from.
func findFilesOfType(ext, dir, subFolder string) []string {
	var files []string
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			files = append(files, findFilesOfType(ext, childPath, filepath.Join(subFolder, entry.Name()))...)
			continue
		}
		if strings.HasSuffix(entry.Name(), ext) {
			files = append(files, filepath.Join(subFolder, entry.Name()))
		}
	}
	return files
}

func isExecutable(mode fs.FileMode) bool { return mode&0o111 != 0 }

// packageManifest is the subset of a package.xml manifest the modeler
// records.
type packageManifest struct {
	XMLName           xml.Name `xml:"package"`
	Name              string   `xml:"name"`
	Version           string   `xml:"version"`
	Depend            []string `xml:"depend"`
	BuildDepend       []string `xml:"build_depend"`
	BuildExportDepend []string `xml:"build_export_depend"`
	ExecDepend        []string `xml:"exec_depend"`
}

// dependencies flattens every dependency flavor into one list, in
// manifest declaration groups.
func (m *packageManifest) dependencies() []string {
	var deps []string
	deps = append(deps, m.Depend...)
	deps = append(deps, m.BuildDepend...)
	deps = append(deps, m.BuildExportDepend...)
	deps = append(deps, m.ExecDepend...)
	return deps
}

func readPackageManifest(path string) (*packageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var manifest packageManifest
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}
