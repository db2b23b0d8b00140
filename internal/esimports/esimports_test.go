package esimports

import "testing"

func scanOne(t *testing.T, src string) Decl {
	t.Helper()
	decls := Scan([]byte(src))
	if len(decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d: %+v", len(decls), decls)
	}
	return decls[0]
}

func TestScanNamedImports(t *testing.T) {
	src := `import { A, b as c } from 'pkg';`
	d := scanOne(t, src)
	if d.Source != "pkg" {
		t.Fatalf("Source = %q", d.Source)
	}
	if d.Start != 0 || int(d.End) != len(src) {
		t.Fatalf("span = %d-%d, want 0-%d", d.Start, d.End, len(src))
	}
	if len(d.Named) != 2 {
		t.Fatalf("named = %+v", d.Named)
	}
	if d.Named[0].Imported != "A" || d.Named[0].Local != "A" {
		t.Fatalf("first = %+v", d.Named[0])
	}
	if d.Named[1].Imported != "b" || d.Named[1].Local != "c" {
		t.Fatalf("second = %+v", d.Named[1])
	}
	if got := src[d.Named[1].Start:d.Named[1].End]; got != "b as c" {
		t.Fatalf("second span text = %q", got)
	}
	if got := src[d.ClauseStart:d.ClauseEnd]; got != "{ A, b as c }" {
		t.Fatalf("clause text = %q", got)
	}
}

func TestScanDefaultAndNamespace(t *testing.T) {
	d := scanOne(t, `import def, * as ns from "pkg"`)
	if d.DefaultName != "def" || d.NamespaceName != "ns" {
		t.Fatalf("got %+v", d)
	}
	if !d.HasDefaultOrNamespace() {
		t.Fatal("HasDefaultOrNamespace")
	}
}

func TestScanDefaultWithNamed(t *testing.T) {
	src := `import pg, { A } from 'pkg';`
	d := scanOne(t, src)
	if d.DefaultName != "pg" || len(d.Named) != 1 || d.Named[0].Imported != "A" {
		t.Fatalf("got %+v", d)
	}
}

func TestScanSideEffectImport(t *testing.T) {
	d := scanOne(t, `import './polyfill.js';`)
	if d.Source != "./polyfill.js" || len(d.Named) != 0 || d.HasDefaultOrNamespace() {
		t.Fatalf("got %+v", d)
	}
}

func TestScanTypeOnlyDeclaration(t *testing.T) {
	d := scanOne(t, `import type { T } from 'pkg';`)
	if !d.TypeOnly {
		t.Fatal("expected type-only declaration")
	}
	d = scanOne(t, `import type Def from 'pkg';`)
	if !d.TypeOnly || d.DefaultName != "Def" {
		t.Fatalf("got %+v", d)
	}
}

func TestScanTypeAsDefaultName(t *testing.T) {
	// здесь type — имя default-импорта, не модификатор
	d := scanOne(t, `import type from 'pkg';`)
	if d.TypeOnly || d.DefaultName != "type" {
		t.Fatalf("got %+v", d)
	}
}

func TestScanTypeOnlySpecifier(t *testing.T) {
	d := scanOne(t, `import { type T, value } from 'pkg';`)
	if d.TypeOnly {
		t.Fatal("declaration itself is not type-only")
	}
	if len(d.Named) != 2 {
		t.Fatalf("named = %+v", d.Named)
	}
	if !d.Named[0].TypeOnly || d.Named[0].Imported != "T" {
		t.Fatalf("first = %+v", d.Named[0])
	}
	if d.Named[1].TypeOnly || d.Named[1].Imported != "value" {
		t.Fatalf("second = %+v", d.Named[1])
	}
}

func TestScanSpecifierSpanEndsAtLastToken(t *testing.T) {
	src := "import { first , second\t, type Third } from 'pkg';"
	d := scanOne(t, src)
	if len(d.Named) != 3 {
		t.Fatalf("named = %+v", d.Named)
	}
	for i, want := range []string{"first", "second", "type Third"} {
		if got := src[d.Named[i].Start:d.Named[i].End]; got != want {
			t.Fatalf("span %d text = %q, want %q", i, got, want)
		}
	}
}

func TestScanSpecifierNamedType(t *testing.T) {
	// `type as t` импортирует значение с именем type
	d := scanOne(t, `import { type as t } from 'pkg';`)
	if len(d.Named) != 1 || d.Named[0].TypeOnly {
		t.Fatalf("got %+v", d.Named)
	}
	if d.Named[0].Imported != "type" || d.Named[0].Local != "t" {
		t.Fatalf("got %+v", d.Named[0])
	}
}

func TestScanStringImportedName(t *testing.T) {
	d := scanOne(t, `import { "kebab-name" as kebab } from 'pkg';`)
	if len(d.Named) != 1 || d.Named[0].Imported != "kebab-name" || d.Named[0].Local != "kebab" {
		t.Fatalf("got %+v", d.Named)
	}
}

func TestScanIgnoresDynamicImportAndMeta(t *testing.T) {
	src := `
const mod = await import('dynamic');
const u = import.meta.url;
import real from 'static';
`
	decls := Scan([]byte(src))
	if len(decls) != 1 || decls[0].Source != "static" {
		t.Fatalf("got %+v", decls)
	}
}

func TestScanIgnoresImportsInStringsAndComments(t *testing.T) {
	src := `
// import fake1 from 'commented';
/* import fake2 from 'blocked'; */
const s = "import fake3 from 'quoted';";
const tpl = ` + "`import fake4 from 'templated'; ${import.meta.url} `" + `;
import real from 'pkg';
`
	decls := Scan([]byte(src))
	if len(decls) != 1 || decls[0].Source != "pkg" {
		t.Fatalf("got %+v", decls)
	}
}

func TestScanIgnoresNestedImportLikeCode(t *testing.T) {
	src := `
function f() {
	return { import: 1 };
}
import real from 'pkg';
`
	decls := Scan([]byte(src))
	if len(decls) != 1 || decls[0].Source != "pkg" {
		t.Fatalf("got %+v", decls)
	}
}

func TestScanMultipleDeclarations(t *testing.T) {
	src := `import a from 'one';
import { b } from 'two';
import 'three';`
	decls := Scan([]byte(src))
	if len(decls) != 3 {
		t.Fatalf("got %d decls", len(decls))
	}
	if decls[0].Source != "one" || decls[1].Source != "two" || decls[2].Source != "three" {
		t.Fatalf("got %+v", decls)
	}
}

func TestScanWithoutSemicolon(t *testing.T) {
	src := `import { a } from 'pkg'
const x = 1;`
	d := Scan([]byte(src))[0]
	if got := d.Text([]byte(src)); got != `import { a } from 'pkg'` {
		t.Fatalf("declaration text = %q", got)
	}
}

func TestScanTemplateInterpolationKeepsDepth(t *testing.T) {
	src := "const a = `x${ {k: '}'} }y`;\nimport real from 'pkg';"
	decls := Scan([]byte(src))
	if len(decls) != 1 || decls[0].Source != "pkg" {
		t.Fatalf("got %+v", decls)
	}
}

func TestScanTrailingCommaInClause(t *testing.T) {
	d := scanOne(t, `import { a, b, } from 'pkg';`)
	if len(d.Named) != 2 {
		t.Fatalf("got %+v", d.Named)
	}
}
