// Package elide removes import bindings that exist only as
// compile-time types. Type stripping leaves named bindings in place,
// and under ESM semantics a named import that the target module does
// not actually export throws at load time; this pass rewrites the
// source text so only runtime-backed bindings remain.
//
// CommonJS-flavored sources are exempt: a missing property access
// there degrades to undefined instead of throwing.
package elide

import (
	"context"
	"fmt"
	"strings"

	"tsbridge/internal/edit"
	"tsbridge/internal/esimports"
	"tsbridge/internal/introspect"
	"tsbridge/internal/resolver"
	"tsbridge/internal/trace"
)

// Elider rewrites ESM typed-source buffers using runtime export sets.
type Elider struct {
	intr   *introspect.Introspector
	tracer trace.Tracer
}

// New creates an Elider. A nil tracer disables tracing.
func New(intr *introspect.Introspector, tracer trace.Tracer) *Elider {
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Elider{intr: intr, tracer: tracer}
}

// Rewrite returns src with type-only named imports removed. The input
// buffer is returned unchanged (same backing array) when no edits were
// produced.
func (e *Elider) Rewrite(ctx context.Context, src []byte) ([]byte, error) {
	var plan edit.Plan
	for _, decl := range esimports.Scan(src) {
		e.planDecl(ctx, src, &decl, &plan)
	}
	if plan.Len() == 0 {
		return src, nil
	}
	out, err := plan.Apply(src)
	if err != nil {
		return nil, fmt.Errorf("elide: %w", err)
	}
	trace.Point(e.tracer, trace.ScopeLoad, "elide", fmt.Sprintf("%d edits", plan.Len()))
	return out, nil
}

// planDecl decides what, if anything, to remove from one declaration.
func (e *Elider) planDecl(ctx context.Context, src []byte, decl *esimports.Decl, plan *edit.Plan) {
	// type-only декларации уже вычищены выше по конвейеру
	if decl.TypeOnly || len(decl.Named) == 0 {
		return
	}
	// интроспекции подлежат только внешние bare-пакеты: локальные
	// файлы собираются тем же билдом и не проверяются
	if resolver.ClassifySpecifier(decl.Source) != resolver.SpecifierBare {
		return
	}
	exports, ok := e.intr.Exports(ctx, decl.Source)
	if !ok {
		// fail open: интроспекция недоступна — пропускаем декларацию
		return
	}

	marked := make([]bool, len(decl.Named))
	markedCount, keptCount := 0, 0
	for i, spec := range decl.Named {
		if spec.TypeOnly {
			keptCount++
			continue
		}
		if !exports[spec.Imported] {
			marked[i] = true
			markedCount++
		} else {
			keptCount++
		}
	}
	if markedCount == 0 {
		return
	}

	if keptCount > 0 {
		planPartialRemoval(decl, marked, plan)
		return
	}

	if decl.HasDefaultOrNamespace() {
		// остаётся default/namespace: убираем только клаузу в скобках
		// вместе с предшествующей запятой
		start := decl.ClauseStart
		if comma, ok := precedingComma(src, decl.ClauseStart); ok {
			start = comma
		}
		plan.Add(start, decl.ClauseEnd, "")
		return
	}

	// все связывания типовые: заменяем декларацию инертным
	// комментарием, сохраняя исходный текст
	plan.Add(decl.Start, decl.End, inertComment(decl.Text(src)))
}

// planPartialRemoval removes runs of consecutive marked specifiers. A
// run followed by a kept specifier absorbs the following separators by
// extending to the next specifier's start; a run at the clause end
// absorbs the preceding comma by starting at the previous specifier's
// end. Runs are separated by kept specifiers, so ranges never overlap.
func planPartialRemoval(decl *esimports.Decl, marked []bool, plan *edit.Plan) {
	for i := 0; i < len(decl.Named); {
		if !marked[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(decl.Named) && marked[j+1] {
			j++
		}
		if j+1 < len(decl.Named) {
			plan.Add(decl.Named[i].Start, decl.Named[j+1].Start, "")
		} else {
			plan.Add(decl.Named[i-1].End, decl.Named[j].End, "")
		}
		i = j + 1
	}
}

// precedingComma scans backwards from offset over whitespace to a
// comma.
func precedingComma(src []byte, offset uint32) (uint32, bool) {
	i := int(offset) - 1
	for i >= 0 && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n') {
		i--
	}
	if i >= 0 && src[i] == ',' {
		return uint32(i), true
	}
	return 0, false
}

// inertComment wraps the original declaration text in a block comment.
// A comment terminator inside the text (only possible via a contrived
// specifier string) is defused first.
func inertComment(text string) string {
	return "/* elided: " + strings.ReplaceAll(text, "*/", "*\\/") + " */"
}
