// Package analyzer implements the localvet checks for misuse of the
// threadlocal package.
//
// Two things go wrong with per-goroutine singletons in practice, and
// both are silent at runtime:
//
//  1. Conflicting registrations: two New calls name the same
//     (value type, tag type) pair but supply different constructors.
//     The registry keeps whichever registration runs first, so one of
//     the two call sites quietly gets the other's construction policy.
//
//  2. Escaping references: the result of Get is stored into a
//     package-level variable. The reference is owned by the goroutine
//     that called Get; publishing it shares unsynchronized state
//     across goroutines.
//
// Both are detectable statically from the type information the
// analysis framework provides, which is what this analyzer does.
package analyzer

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// threadlocalPath is the import path whose New/NewInPlace/Get calls
// are analyzed.
const threadlocalPath = "github.com/atulkulk/folly/threadlocal"

// Check names accepted by -disable.
const (
	CheckDupFactory = "dupfactory"
	CheckSharedRef  = "sharedref"
)

var Analyzer = &analysis.Analyzer{
	Name: "localvet",
	Doc: "report misuse of per-goroutine singletons: conflicting " +
		"constructors for one (type, tag) pair, and Get results stored " +
		"in package-level variables",
	Run: run,
}

var (
	flagModule  string
	flagSkip    string
	flagDisable string
)

func init() {
	Analyzer.Flags.StringVar(&flagModule, "module",
		"", "only report diagnostics for packages under this module path")
	Analyzer.Flags.StringVar(&flagSkip, "skip",
		"", "comma-separated package path prefixes to skip")
	Analyzer.Flags.StringVar(&flagDisable, "disable",
		"", "comma-separated check names to disable (dupfactory, sharedref)")
}

// registration is one New/NewInPlace call site.
type registration struct {
	call    *ast.CallExpr
	fn      string // "New" or "NewInPlace"
	factory string // rendered constructor argument
}

func run(pass *analysis.Pass) (interface{}, error) {
	if skipPackage(pass.Pkg.Path(), flagModule, splitList(flagSkip)) {
		return nil, nil
	}
	disabled := make(map[string]bool)
	for _, name := range splitList(flagDisable) {
		disabled[name] = true
	}

	// Singleton registrations per instantiated (fn kind, type args)
	// key, collected across the whole package.
	regs := make(map[string][]registration)

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			ident := calleeIdent(call.Fun)
			if ident == nil {
				return true
			}
			obj := pass.TypesInfo.Uses[ident]
			if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != threadlocalPath {
				return true
			}
			switch obj.Name() {
			case "New", "NewInPlace":
				inst, ok := pass.TypesInfo.Instances[ident]
				if !ok || len(call.Args) == 0 {
					return true
				}
				key := registrationKey(obj.Name(), inst.TypeArgs)
				regs[key] = append(regs[key], registration{
					call:    call,
					fn:      obj.Name(),
					factory: render(pass, call.Args[0]),
				})
			}
			return true
		})

		if !disabled[CheckSharedRef] {
			checkSharedRefs(pass, file)
		}
	}

	if !disabled[CheckDupFactory] {
		checkDupFactories(pass, regs)
	}
	return nil, nil
}

// checkDupFactories reports registrations of one (type, tag) pair with
// conflicting constructors.
func checkDupFactories(pass *analysis.Pass, regs map[string][]registration) {
	for key, sites := range regs {
		if len(sites) < 2 {
			continue
		}
		first := sites[0]
		for _, site := range sites[1:] {
			if site.fn != first.fn || site.factory != first.factory {
				pass.Reportf(site.call.Pos(),
					"conflicting constructor for singleton %s: only the first registration's constructor runs (see %s)",
					key, pass.Fset.Position(first.call.Pos()))
			}
		}
	}
}

// checkSharedRefs reports package-level variables initialized from a
// Singleton Get call.
func checkSharedRefs(pass *analysis.Pass, file *ast.File) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, value := range vs.Values {
				ast.Inspect(value, func(n ast.Node) bool {
					call, ok := n.(*ast.CallExpr)
					if ok && isSingletonGet(pass.TypesInfo, call) {
						pass.Reportf(call.Pos(),
							"Get result stored in a package-level variable: the reference belongs to the constructing goroutine only")
					}
					return true
				})
			}
		}
	}
}

// isSingletonGet reports whether call invokes threadlocal Singleton.Get.
func isSingletonGet(info *types.Info, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Get" {
		return false
	}
	obj, ok := info.Uses[sel.Sel].(*types.Func)
	if !ok {
		return false
	}
	recv := obj.Type().(*types.Signature).Recv()
	if recv == nil {
		return false
	}
	named := namedRecv(recv.Type())
	return named != nil &&
		named.Obj().Pkg() != nil &&
		named.Obj().Pkg().Path() == threadlocalPath &&
		named.Obj().Name() == "Singleton"
}

func namedRecv(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, _ := t.(*types.Named)
	return named
}

// calleeIdent unwraps a call target down to the function identifier,
// handling plain calls, selector calls, and explicit instantiations
// (New[Tag] and New[Tag, T] forms).
func calleeIdent(fun ast.Expr) *ast.Ident {
	switch e := fun.(type) {
	case *ast.Ident:
		return e
	case *ast.SelectorExpr:
		return e.Sel
	case *ast.IndexExpr:
		return calleeIdent(e.X)
	case *ast.IndexListExpr:
		return calleeIdent(e.X)
	}
	return nil
}

// registrationKey renders a stable identity for one instantiation:
// the function kind plus its type arguments.
func registrationKey(fn string, args *types.TypeList) string {
	parts := make([]string, 0, args.Len())
	for i := 0; i < args.Len(); i++ {
		parts = append(parts, types.TypeString(args.At(i), nil))
	}
	return fmt.Sprintf("%s[%s]", fn, strings.Join(parts, ", "))
}

// skipPackage decides whether path is out of scope: outside the module
// under analysis, or matching a configured skip prefix.
func skipPackage(path, module string, skips []string) bool {
	if module != "" && path != module && !strings.HasPrefix(path, module+"/") {
		return true
	}
	for _, prefix := range skips {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// render prints an expression compactly for comparison and reporting.
func render(pass *analysis.Pass, expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, pass.Fset, expr); err != nil {
		return fmt.Sprintf("<%T>", expr)
	}
	return buf.String()
}
