package types

import (
	"testing"

	"stagec/internal/ast"
)

func TestInternerDedups(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if in.Intern(Type{Kind: KindInt}) != b.Int {
		t.Fatalf("int must intern to the builtin id")
	}
	code := in.Intern(MakeCode(b.Int, "js"))
	if in.Intern(MakeCode(b.Int, "js")) != code {
		t.Fatalf("code types with the same annotation must share an id")
	}
	if in.Intern(MakeCode(b.Int, "gl")) == code {
		t.Fatalf("annotation is part of the code type")
	}
	fn := in.RegisterFn([]TypeID{b.Int, b.Float}, b.Void)
	if in.RegisterFn([]TypeID{b.Int, b.Float}, b.Void) != fn {
		t.Fatalf("function types must be deduplicated")
	}
	if got := in.String(fn); got != "(fun (int float) void)" {
		t.Fatalf("fn string = %q", got)
	}
	if got := in.String(code); got != "(code js int)" {
		t.Fatalf("code string = %q", got)
	}
}

func TestTableReservesSlotZero(t *testing.T) {
	tbl := NewTable(nil)
	if tbl.Len() != 1 {
		t.Fatalf("empty table must have length 1, got %d", tbl.Len())
	}
	if _, ok := tbl.Get(ast.NoNodeID); ok {
		t.Fatalf("slot 0 must be absent")
	}
	id := tbl.Append(Entry{Type: tbl.Types.Builtins().Int})
	if id != 1 || tbl.Len() != 2 {
		t.Fatalf("append returned %d, len %d", id, tbl.Len())
	}
}

func TestUniformAndAppend(t *testing.T) {
	in := NewInterner()
	tbl := Uniform(in, 5, in.Builtins().Any)
	if tbl.Len() != 6 {
		t.Fatalf("len = %d", tbl.Len())
	}
	for id := ast.NodeID(1); id <= 5; id++ {
		if e, ok := tbl.Get(id); !ok || e.Type != in.Builtins().Any {
			t.Fatalf("node %d: %+v %v", id, e, ok)
		}
	}
	next := tbl.Append(Entry{Type: in.Builtins().Int})
	if next != 6 {
		t.Fatalf("append after uniform = %d", next)
	}
}

func TestSetLeavesGapsAbsent(t *testing.T) {
	tbl := NewTable(nil)
	tbl.Set(4, Entry{Type: tbl.Types.Builtins().Bool, Parent: 2})
	if tbl.Len() != 5 {
		t.Fatalf("len = %d", tbl.Len())
	}
	if _, ok := tbl.Get(3); ok {
		t.Fatalf("unset slot must be absent")
	}
	if e, ok := tbl.Get(4); !ok || e.Parent != 2 {
		t.Fatalf("entry 4 = %+v %v", e, ok)
	}
}

func TestSnapshotRestorePreservesIDs(t *testing.T) {
	in := NewInterner()
	fn := in.RegisterFn([]TypeID{in.Builtins().String}, in.Builtins().Int)
	code := in.Intern(MakeCode(fn, "gl"))
	tbl := NewTable(in)
	tbl.Append(Entry{Type: code})
	tbl.Append(Entry{Type: fn, Parent: 1})

	back := Restore(tbl.Snapshot())
	if back.Len() != tbl.Len() {
		t.Fatalf("len %d != %d", back.Len(), tbl.Len())
	}
	if back.Types.String(code) != in.String(code) {
		t.Fatalf("restored %q, want %q", back.Types.String(code), in.String(code))
	}
	if back.Types.Intern(MakeCode(fn, "gl")) != code {
		t.Fatalf("restored interner must keep ids stable")
	}
	if back.Types.Builtins() != in.Builtins() {
		t.Fatalf("builtins differ after restore")
	}
}
