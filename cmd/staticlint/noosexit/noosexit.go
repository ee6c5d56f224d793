// Package noosexit defines an analyzer that flags direct os.Exit calls inside
// the main function of package main. Exiting there skips deferred cleanup and
// makes the entrypoint untestable; the entrypoint should return errors to a
// thin main that decides how to terminate.
package noosexit

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports direct use of os.Exit in main.main.
var Analyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "prohibits direct use of os.Exit in main.main",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		// Synthetic files from the build cache are not project code.
		if inGoBuildCache(pass.Fset.File(file.Pos()).Name()) {
			continue
		}

		for _, decl := range file.Decls {
			mainFn, ok := decl.(*ast.FuncDecl)
			if !ok || mainFn.Recv != nil || mainFn.Name.Name != "main" {
				continue
			}

			reportOsExitCalls(pass, mainFn)
		}
	}

	return nil, nil
}

func reportOsExitCalls(pass *analysis.Pass, fn *ast.FuncDecl) {
	ast.Inspect(fn.Body, func(node ast.Node) bool {
		call, ok := node.(*ast.CallExpr)
		if !ok {
			return true
		}

		selector, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || selector.Sel.Name != "Exit" {
			return true
		}

		if pkgIdent, ok := selector.X.(*ast.Ident); ok && pkgIdent.Name == "os" {
			pass.Reportf(call.Pos(), "avoid using os.Exit in main.main")
		}

		return true
	})
}

func inGoBuildCache(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/") || strings.Contains(path, `\go-build\`)
}
