package analyzer

import (
	"go/ast"
	"go/parser"
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

func TestDiagnostics(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), Analyzer, "dupfactory", "sharedref")
}

func TestDisableSuppressesChecks(t *testing.T) {
	if err := Analyzer.Flags.Set("disable", CheckDupFactory+","+CheckSharedRef); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := Analyzer.Flags.Set("disable", ""); err != nil {
			t.Fatal(err)
		}
	})
	// The disabled testdata package carries both violations and no
	// expectations; any diagnostic fails the run.
	analysistest.Run(t, analysistest.TestData(), Analyzer, "disabled")
}

func TestSkipPackage(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		module string
		skips  []string
		want   bool
	}{
		{"no scoping", "example.com/a", "", nil, false},
		{"inside module", "example.com/mod/internal/x", "example.com/mod", nil, false},
		{"module root", "example.com/mod", "example.com/mod", nil, false},
		{"outside module", "other.com/dep", "example.com/mod", nil, true},
		{"module prefix is not path prefix", "example.com/modx", "example.com/mod", nil, true},
		{"skipped prefix", "example.com/mod/gen", "example.com/mod", []string{"example.com/mod/gen"}, true},
		{"skip subpackage", "example.com/mod/gen/pb", "", []string{"example.com/mod/gen"}, true},
		{"unrelated skip", "example.com/mod/api", "", []string{"example.com/mod/gen"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skipPackage(tt.path, tt.module, tt.skips); got != tt.want {
				t.Errorf("skipPackage(%q, %q, %v) = %v, want %v",
					tt.path, tt.module, tt.skips, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , b ,", []string{"a", "b"}},
		{",,", nil},
	}

	for _, tt := range tests {
		got := splitList(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitList(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestCalleeIdent(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"plain ident", "New(f)", "New"},
		{"selector", "threadlocal.New(f)", "New"},
		{"one type arg", "threadlocal.New[tag](f)", "New"},
		{"two type args", "threadlocal.New[tag, int](f)", "New"},
		{"instantiated local", "NewInPlace[tag, T](f)", "NewInPlace"},
		{"indexed non-generic base", "fns[0](f)", "fns"},
		{"not a name", "(f())(x)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.expr)
			if err != nil {
				t.Fatalf("ParseExpr(%q): %v", tt.expr, err)
			}
			call, ok := expr.(*ast.CallExpr)
			if !ok {
				t.Fatalf("%q did not parse to a call", tt.expr)
			}
			ident := calleeIdent(call.Fun)
			switch {
			case tt.want == "" && ident != nil:
				t.Errorf("calleeIdent(%q) = %q, want none", tt.expr, ident.Name)
			case tt.want != "" && ident == nil:
				t.Errorf("calleeIdent(%q) = none, want %q", tt.expr, tt.want)
			case ident != nil && ident.Name != tt.want:
				t.Errorf("calleeIdent(%q) = %q, want %q", tt.expr, ident.Name, tt.want)
			}
		})
	}
}
